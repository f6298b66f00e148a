package dedup

import (
	"testing"

	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"

	"github.com/matanlotem/spcbir/catalog"
)

func pointsTensor(rows [][]float64) *tensors.Tensor {
	dim := len(rows[0])
	tensor := tensors.FromShape(shapes.Make(dtypes.Float64, len(rows), dim))
	tensors.MutableFlatData[float64](tensor, func(flat []float64) {
		for i, row := range rows {
			copy(flat[i*dim:(i+1)*dim], row)
		}
	})
	return tensor
}

func TestCentroidsComputesMean(t *testing.T) {
	images := []catalog.ImageFeatures{
		{ImageID: 0, Points: pointsTensor([][]float64{{0, 0}, {2, 2}})},
		{ImageID: 1, Points: pointsTensor([][]float64{{10, 10}})},
	}
	centroids, err := Centroids(images)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 1}, centroids[0].Coords)
	require.Equal(t, []float64{10, 10}, centroids[1].Coords)
}

func TestCentroidsRejectsEmpty(t *testing.T) {
	_, err := Centroids(nil)
	require.Error(t, err)
}

func testCentroids() []Centroid {
	return []Centroid{
		{ImageID: 0, Coords: []float64{0, 0}},
		{ImageID: 1, Coords: []float64{0.1, 0}},
		{ImageID: 2, Coords: []float64{10, 10}},
		{ImageID: 3, Coords: []float64{10.05, 10}},
		{ImageID: 4, Coords: []float64{-5, 5}},
	}
}

func TestNearestOtherImageExcludesSelf(t *testing.T) {
	tree, err := BuildCentroidTree(testCentroids(), 1)
	require.NoError(t, err)

	id, dist2, found := tree.NearestOtherImage([]float64{0, 0}, 0)
	require.True(t, found)
	require.Equal(t, 1, id)
	require.InDelta(t, 0.01, dist2, 1e-9)
}

func TestRadiusPairsFindsCloseClusters(t *testing.T) {
	tree, err := BuildCentroidTree(testCentroids(), 1)
	require.NoError(t, err)

	edges, err := tree.RadiusPairs(0.2)
	require.NoError(t, err)

	pairs, err := MergeCandidates(edges)
	require.NoError(t, err)
	require.Equal(t, []DuplicatePair{{ImageA: 0, ImageB: 1}, {ImageA: 2, ImageB: 3}}, pairs)
}

func TestRadiusPairsRejectsWhenNoneFound(t *testing.T) {
	tree, err := BuildCentroidTree(testCentroids(), 1)
	require.NoError(t, err)

	_, err = tree.RadiusPairs(0.01)
	require.Error(t, err)
}

func TestMergeCandidatesDeduplicatesAcrossSets(t *testing.T) {
	tree, err := BuildCentroidTree(testCentroids(), 1)
	require.NoError(t, err)

	a, err := tree.RadiusPairs(0.2)
	require.NoError(t, err)
	b, err := tree.RadiusPairs(0.3)
	require.NoError(t, err)

	pairs, err := MergeCandidates(a, b)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
}

func TestMergeCandidatesRejectsEmptyInput(t *testing.T) {
	_, err := MergeCandidates()
	require.Error(t, err)
}

func TestBuildCentroidTreeRejectsMismatchedDimensions(t *testing.T) {
	_, err := BuildCentroidTree([]Centroid{
		{ImageID: 0, Coords: []float64{0, 0}},
		{ImageID: 1, Coords: []float64{0}},
	}, 1)
	require.Error(t, err)
}
