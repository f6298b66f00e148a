// Package kdarray implements the KDArray build-time primitive: a descriptor
// set augmented with, for each axis, a permutation giving the ascending
// order of the descriptors on that axis. Splitting a KDArray partitions its
// descriptors around the median of one axis while deriving both children's
// permutations by a single linear pass over the parent's -- no re-sort, which
// is the whole point of keeping the permutations around in the first place.
//
// This is a build-time transient: kdtree.Build consumes it recursively and
// does not retain it once the tree is built.
package kdarray

import (
	"sort"

	"github.com/matanlotem/spcbir/descriptor"
	"github.com/matanlotem/spcbir/spcbirerr"
)

// KDArray is a set of n descriptors of common dimension d, plus d
// permutations of [0,n) -- one per axis -- each ordering the descriptors
// ascending by their coordinate on that axis, ties broken by original index.
type KDArray struct {
	// Descriptors holds the n points of this array, in construction (not
	// sorted) order.
	Descriptors []descriptor.Descriptor

	// SortIdx[axis] is a permutation of [0,n): SortIdx[axis][i] is the
	// index into Descriptors of the point with the i-th smallest
	// coordinate on axis.
	SortIdx [][]int

	dim int
}

// Dim returns the common dimension of every descriptor in the array.
func (a *KDArray) Dim() int { return a.dim }

// Len returns the number of descriptors in the array.
func (a *KDArray) Len() int { return len(a.Descriptors) }

// Build constructs a KDArray from a descriptor set.
//
// Returns InvalidArgument if descriptors is empty or the descriptors don't
// all share the same dimension.
func Build(descriptors []descriptor.Descriptor) (*KDArray, error) {
	n := len(descriptors)
	if n == 0 {
		return nil, spcbirerr.New(spcbirerr.InvalidArgument, "kdarray: build requires at least one descriptor")
	}
	d := descriptors[0].Dim()
	for i, p := range descriptors {
		if p.Dim() != d {
			return nil, spcbirerr.New(spcbirerr.InvalidArgument, "kdarray: descriptor %d has dimension %d, want %d", i, p.Dim(), d)
		}
	}

	sortIdx := make([][]int, d)
	for axis := 0; axis < d; axis++ {
		sortIdx[axis] = stableSortByAxis(descriptors, axis)
	}

	return &KDArray{
		Descriptors: descriptors,
		SortIdx:     sortIdx,
		dim:         d,
	}, nil
}

// stableSortByAxis returns a permutation of [0,n) ordering descriptors
// ascending by their coordinate on axis, ties broken by original index. It
// uses sort.SliceStable, which is a merge sort under the hood and is
// therefore deterministic given equal keys -- the property this package
// requires.
func stableSortByAxis(descriptors []descriptor.Descriptor, axis int) []int {
	perm := make([]int, len(descriptors))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		return descriptors[perm[i]].Coord(axis) < descriptors[perm[j]].Coord(axis)
	})
	return perm
}

// Split partitions the array in two around the median of splitAxis.
//
// The left child receives the ceil(n/2) descriptors with the smallest
// coordinates on splitAxis (per the stable order computed at Build time);
// the right child receives the rest. Both children's SortIdx rows are
// derived from the parent's in a single linear pass per axis, preserving
// per-axis sort order without re-sorting.
//
// Returns the split value: the splitAxis coordinate of the largest-index
// left element, i.e. coords[perm[floor((n-1)/2)]][splitAxis].
//
// Requires n >= 2 and 0 <= splitAxis < Dim(); returns InvalidArgument
// otherwise.
func (a *KDArray) Split(splitAxis int) (left, right *KDArray, splitValue float64, err error) {
	n := a.Len()
	if n < 2 {
		return nil, nil, 0, spcbirerr.New(spcbirerr.InvalidArgument, "kdarray: split requires at least 2 descriptors, got %d", n)
	}
	if splitAxis < 0 || splitAxis >= a.dim {
		return nil, nil, 0, spcbirerr.New(spcbirerr.InvalidArgument, "kdarray: split axis %d out of range [0, %d)", splitAxis, a.dim)
	}

	perm := a.SortIdx[splitAxis]
	nLeft := (n + 1) / 2
	nRight := n - nLeft

	// side[i] says which child original index i belongs to; newIndex[i]
	// is i's position within that child's descriptor list.
	side := make([]bool, n) // false == left, true == right
	for rank, origIdx := range perm {
		side[origIdx] = rank >= nLeft
	}
	newIndex := make([]int, n)
	var nextLeft, nextRight int
	for origIdx := 0; origIdx < n; origIdx++ {
		if side[origIdx] {
			newIndex[origIdx] = nextRight
			nextRight++
		} else {
			newIndex[origIdx] = nextLeft
			nextLeft++
		}
	}

	leftDescriptors := make([]descriptor.Descriptor, nLeft)
	rightDescriptors := make([]descriptor.Descriptor, nRight)
	for origIdx := 0; origIdx < n; origIdx++ {
		if side[origIdx] {
			rightDescriptors[newIndex[origIdx]] = a.Descriptors[origIdx]
		} else {
			leftDescriptors[newIndex[origIdx]] = a.Descriptors[origIdx]
		}
	}

	leftSortIdx := make([][]int, a.dim)
	rightSortIdx := make([][]int, a.dim)
	for axis := 0; axis < a.dim; axis++ {
		leftRow := make([]int, 0, nLeft)
		rightRow := make([]int, 0, nRight)
		for _, origIdx := range a.SortIdx[axis] {
			if side[origIdx] {
				rightRow = append(rightRow, newIndex[origIdx])
			} else {
				leftRow = append(leftRow, newIndex[origIdx])
			}
		}
		leftSortIdx[axis] = leftRow
		rightSortIdx[axis] = rightRow
	}

	medianOrigIdx := perm[(n-1)/2]
	splitValue = a.Descriptors[medianOrigIdx].Coord(splitAxis)

	left = &KDArray{Descriptors: leftDescriptors, SortIdx: leftSortIdx, dim: a.dim}
	right = &KDArray{Descriptors: rightDescriptors, SortIdx: rightSortIdx, dim: a.dim}
	return left, right, splitValue, nil
}
