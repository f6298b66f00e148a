// Package kdtree builds a single k-d tree over a catalog's descriptors and
// answers bounded k-nearest-neighbour queries against it via branch-and-bound
// search over an implicit axis-aligned bounding box per subtree.
//
// A built Tree is immutable; concurrent KNNSearch calls against the same
// Tree are safe as long as each carries its own BPQ and limits frame, which
// KNNSearch always does.
package kdtree

import (
	"github.com/matanlotem/spcbir/bpq"
	"github.com/matanlotem/spcbir/descriptor"
	"github.com/matanlotem/spcbir/kdarray"
	"github.com/matanlotem/spcbir/spcbirerr"
)

// SplitMethod selects how a node's split axis is chosen during Build.
type SplitMethod int

const (
	// Incremental cycles through axes depth by depth: (prevAxis+1) mod d.
	Incremental SplitMethod = iota
	// Random draws the split axis uniformly from [0, d) via a caller-supplied RandomSource.
	Random
	// MaxSpread picks the axis with the largest coordinate range at this node.
	MaxSpread
)

// RandomSource is the minimal surface Build needs for the Random split
// method. *rand.Rand (math/rand/v2) satisfies this directly, so seeded,
// reproducible builds are just a matter of constructing the *rand.Rand with
// a fixed seed.
type RandomSource interface {
	IntN(n int) int
}

// Node is one node of a built tree: either a Leaf holding a single
// descriptor, or an Internal node holding a split axis/value and two
// children. IsLeaf distinguishes the two; Left and Right are both nil iff
// the node is a leaf.
type Node struct {
	// Descriptor is set only on leaves.
	Descriptor descriptor.Descriptor

	// SplitAxis and SplitValue are set only on internal nodes.
	SplitAxis  int
	SplitValue float64

	Left, Right *Node
}

// IsLeaf reports whether n is a leaf node.
func (n *Node) IsLeaf() bool { return n.Left == nil && n.Right == nil }

// Tree is a binary k-d tree over a fixed set of catalog descriptors.
type Tree struct {
	Root *Node
	Dim  int
	// NumDescriptors is the total number of descriptors indexed by the tree.
	NumDescriptors int
}

// Build constructs a Tree from a descriptor set.
//
// method selects how each node's split axis is chosen; rng supplies entropy
// for SplitMethod Random and may be nil for the other two methods.
//
// Returns InvalidArgument if descriptors is empty, if rng is nil and method
// is Random, or if the descriptors don't share a common dimension (surfaced
// via kdarray.Build).
func Build(descriptors []descriptor.Descriptor, method SplitMethod, rng RandomSource) (*Tree, error) {
	if len(descriptors) == 0 {
		return nil, spcbirerr.New(spcbirerr.InvalidArgument, "kdtree: build requires at least one descriptor")
	}
	if method == Random && rng == nil {
		return nil, spcbirerr.New(spcbirerr.InvalidArgument, "kdtree: split method Random requires a non-nil RandomSource")
	}

	arr, err := kdarray.Build(descriptors)
	if err != nil {
		return nil, spcbirerr.Wrap(spcbirerr.InvalidArgument, err, "kdtree: build")
	}

	b := &builder{method: method, rng: rng}
	// prevAxis = d-1 so that Incremental's first split lands on axis 0.
	root, err := b.build(arr, arr.Dim()-1)
	if err != nil {
		return nil, err
	}
	return &Tree{Root: root, Dim: arr.Dim(), NumDescriptors: len(descriptors)}, nil
}

type builder struct {
	method SplitMethod
	rng    RandomSource
}

func (b *builder) build(arr *kdarray.KDArray, prevAxis int) (*Node, error) {
	if arr.Len() == 1 {
		return &Node{Descriptor: arr.Descriptors[0]}, nil
	}

	axis := b.chooseAxis(arr, prevAxis)
	left, right, splitValue, err := arr.Split(axis)
	if err != nil {
		return nil, spcbirerr.Wrap(spcbirerr.InvalidArgument, err, "kdtree: build")
	}

	leftNode, err := b.build(left, axis)
	if err != nil {
		return nil, err
	}
	rightNode, err := b.build(right, axis)
	if err != nil {
		return nil, err
	}
	return &Node{SplitAxis: axis, SplitValue: splitValue, Left: leftNode, Right: rightNode}, nil
}

func (b *builder) chooseAxis(arr *kdarray.KDArray, prevAxis int) int {
	d := arr.Dim()
	switch b.method {
	case Incremental:
		return (prevAxis + 1) % d
	case Random:
		return b.rng.IntN(d)
	case MaxSpread:
		bestAxis := 0
		var bestSpread float64 = -1
		for axis := 0; axis < d; axis++ {
			perm := arr.SortIdx[axis]
			lo := arr.Descriptors[perm[0]].Coord(axis)
			hi := arr.Descriptors[perm[len(perm)-1]].Coord(axis)
			spread := hi - lo
			if spread > bestSpread {
				bestSpread = spread
				bestAxis = axis
			}
		}
		return bestAxis
	default:
		return 0
	}
}

// frame is the mutable per-search limits frame: the minimum axis-aligned box
// containing all descriptors of the current subtree, with axes lacking a
// finite bound in that direction flagged unused.
type frame struct {
	low, high         []float64
	lowUsed, highUsed []bool
}

func newFrame(dim int) *frame {
	return &frame{
		low:      make([]float64, dim),
		high:     make([]float64, dim),
		lowUsed:  make([]bool, dim),
		highUsed: make([]bool, dim),
	}
}

// boxSquaredDistance computes the squared L2 distance from query to the
// closest point of the box described by f -- 0 if query is inside the box
// on every bounded axis.
func boxSquaredDistance(query []float64, f *frame) float64 {
	var sum float64
	for axis, q := range query {
		if f.lowUsed[axis] {
			if d := f.low[axis] - q; d > 0 {
				sum += d * d
			}
		}
		if f.highUsed[axis] {
			if d := q - f.high[axis]; d > 0 {
				sum += d * d
			}
		}
	}
	return sum
}

func squaredL2(query []float64, coords []float64) float64 {
	var sum float64
	for i, q := range query {
		d := q - coords[i]
		sum += d * d
	}
	return sum
}

// KNNSearch returns the k descriptors (by image id and squared distance)
// closest to query, via branch-and-bound over the tree's implicit bounding
// boxes. The returned BPQ has capacity k, filled with at most k elements.
//
// Returns InvalidArgument if len(query) != t.Dim or k <= 0.
func (t *Tree) KNNSearch(query []float64, k int) (*bpq.BPQ, error) {
	if len(query) != t.Dim {
		return nil, spcbirerr.New(spcbirerr.InvalidArgument, "kdtree: query has dimension %d, want %d", len(query), t.Dim)
	}
	q, err := bpq.New(k)
	if err != nil {
		return nil, spcbirerr.Wrap(spcbirerr.InvalidArgument, err, "kdtree: KNNSearch")
	}

	f := newFrame(t.Dim)
	searchNode(t.Root, query, f, q)
	return q, nil
}

// searchNode implements the branch-and-bound recursion.
// Visit order is fixed left-then-right, independent of which side of the
// split query[axis] falls on: with K small this never affects the final BPQ
// contents, only how much work gets pruned.
func searchNode(node *Node, query []float64, f *frame, q *bpq.BPQ) {
	if node.IsLeaf() {
		q.Enqueue(node.Descriptor.ImageID(), squaredL2(query, node.Descriptor.Coords()))
		return
	}

	axis := node.SplitAxis

	savedHigh, savedHighUsed := f.high[axis], f.highUsed[axis]
	f.high[axis], f.highUsed[axis] = node.SplitValue, true
	if !(q.IsFull() && prunable(query, f, q)) {
		searchNode(node.Left, query, f, q)
	}
	f.high[axis], f.highUsed[axis] = savedHigh, savedHighUsed

	savedLow, savedLowUsed := f.low[axis], f.lowUsed[axis]
	f.low[axis], f.lowUsed[axis] = node.SplitValue, true
	if !(q.IsFull() && prunable(query, f, q)) {
		searchNode(node.Right, query, f, q)
	}
	f.low[axis], f.lowUsed[axis] = savedLow, savedLowUsed
}

// prunable reports whether the subtree described by f can be skipped given
// the queue's current worst candidate. Only called when q is full, so
// MaxPriority never errors.
func prunable(query []float64, f *frame, q *bpq.BPQ) bool {
	worst, _ := q.MaxPriority()
	return boxSquaredDistance(query, f) >= worst
}
