package kdarray

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matanlotem/spcbir/descriptor"
)

func mustDescriptors(t *testing.T, coords [][]float64) []descriptor.Descriptor {
	t.Helper()
	dim := len(coords[0])
	out := make([]descriptor.Descriptor, len(coords))
	for i, c := range coords {
		d, err := descriptor.New(c, dim, i)
		require.NoError(t, err)
		out[i] = d
	}
	return out
}

// TestScenarioD checks a hand-worked split against its expected SortIdx
// permutations and split sizes.
func TestScenarioD(t *testing.T) {
	descriptors := mustDescriptors(t, [][]float64{
		{1, 2, 3},
		{1, 3, 2},
		{2, 1, 3},
		{2, 3, 1},
		{3, 2, 1},
		{3, 1, 2},
		{4, 4, 0},
	})

	arr, err := Build(descriptors)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, arr.SortIdx[0])
	require.Equal(t, []int{6, 3, 4, 1, 5, 0, 2}, arr.SortIdx[2])

	left, right, _, err := arr.Split(0)
	require.NoError(t, err)
	require.Equal(t, 4, left.Len())
	require.Equal(t, 3, right.Len())
}

func TestBuildRejectsEmpty(t *testing.T) {
	_, err := Build(nil)
	require.Error(t, err)
}

func TestBuildRejectsDimMismatch(t *testing.T) {
	a, _ := descriptor.New([]float64{1, 2}, 2, 0)
	b, _ := descriptor.New([]float64{1, 2, 3}, 3, 1)
	_, err := Build([]descriptor.Descriptor{a, b})
	require.Error(t, err)
}

// TestSortIdxIsAscendingAndStable checks SortIdx orders each axis
// ascending, ties broken by original index.
func TestSortIdxIsAscendingAndStable(t *testing.T) {
	descriptors := mustDescriptors(t, [][]float64{
		{3, 1}, {1, 1}, {2, 1}, {1, 0}, {3, 0},
	})
	arr, err := Build(descriptors)
	require.NoError(t, err)
	for axis := 0; axis < 2; axis++ {
		perm := arr.SortIdx[axis]
		for i := 0; i+1 < len(perm); i++ {
			a := descriptors[perm[i]].Coord(axis)
			b := descriptors[perm[i+1]].Coord(axis)
			require.LessOrEqual(t, a, b)
			if a == b {
				require.Less(t, perm[i], perm[i+1], "ties must break by original index")
			}
		}
	}
}

// TestSplitPartitionsAndPreservesOrder checks Split partitions every axis
// permutation without re-sorting.
func TestSplitPartitionsAndPreservesOrder(t *testing.T) {
	descriptors := mustDescriptors(t, [][]float64{
		{5, 1}, {2, 9}, {8, 3}, {1, 4}, {9, 0}, {3, 7}, {6, 2},
	})
	arr, err := Build(descriptors)
	require.NoError(t, err)

	left, right, splitValue, err := arr.Split(0)
	require.NoError(t, err)
	require.Equal(t, 4, left.Len())
	require.Equal(t, 3, right.Len())

	seen := map[int]bool{}
	for _, p := range left.Descriptors {
		seen[p.ImageID()] = true
	}
	for _, p := range right.Descriptors {
		require.False(t, seen[p.ImageID()], "descriptor %d must not appear in both children", p.ImageID())
		seen[p.ImageID()] = true
	}
	require.Len(t, seen, 7)

	for _, p := range left.Descriptors {
		require.LessOrEqual(t, p.Coord(0), splitValue)
	}

	for _, child := range []*KDArray{left, right} {
		for axis := 0; axis < 2; axis++ {
			perm := child.SortIdx[axis]
			require.Len(t, perm, child.Len())
			for i := 0; i+1 < len(perm); i++ {
				require.LessOrEqual(t, child.Descriptors[perm[i]].Coord(axis), child.Descriptors[perm[i+1]].Coord(axis))
			}
		}
	}
}

func TestSplitRejectsInvalidArgs(t *testing.T) {
	single := mustDescriptors(t, [][]float64{{1, 2}})
	arr, err := Build(single)
	require.NoError(t, err)
	_, _, _, err = arr.Split(0)
	require.Error(t, err, "split requires n >= 2")

	descriptors := mustDescriptors(t, [][]float64{{1, 2}, {3, 4}})
	arr, err = Build(descriptors)
	require.NoError(t, err)
	_, _, _, err = arr.Split(-1)
	require.Error(t, err)
	_, _, _, err = arr.Split(2)
	require.Error(t, err)
}
