package catalog

import (
	"testing"

	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func pointsTensor(t *testing.T, rows [][]float64) *tensors.Tensor {
	t.Helper()
	dim := len(rows[0])
	tensor := tensors.FromShape(shapes.Make(dtypes.Float64, len(rows), dim))
	tensors.MutableFlatData[float64](tensor, func(flat []float64) {
		for i, row := range rows {
			copy(flat[i*dim:(i+1)*dim], row)
		}
	})
	return tensor
}

func TestIngestConcatenatesInOrder(t *testing.T) {
	images := []ImageFeatures{
		{ImageID: 0, Points: pointsTensor(t, [][]float64{{0, 0}, {1, 1}})},
		{ImageID: 1, Points: pointsTensor(t, [][]float64{{2, 2}})},
	}
	descriptors, err := Ingest(images)
	require.NoError(t, err)
	require.Len(t, descriptors, 3)
	require.Equal(t, 0, descriptors[0].ImageID())
	require.Equal(t, 0, descriptors[1].ImageID())
	require.Equal(t, 1, descriptors[2].ImageID())
	require.Equal(t, 2.0, descriptors[2].Coord(0))
}

func TestIngestRejectsEmpty(t *testing.T) {
	_, err := Ingest(nil)
	require.Error(t, err)
}

func TestIngestRejectsDimMismatch(t *testing.T) {
	images := []ImageFeatures{
		{ImageID: 0, Points: pointsTensor(t, [][]float64{{0, 0}})},
		{ImageID: 1, Points: pointsTensor(t, [][]float64{{1, 1, 1}})},
	}
	_, err := Ingest(images)
	require.Error(t, err)
}
