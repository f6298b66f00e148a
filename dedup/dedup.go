// Package dedup finds near-duplicate catalog images by comparing per-image
// centroid descriptors, a coarse pre-filter that sits alongside the
// per-descriptor voting search in package search. It is adapted from the
// tensor-native k-d tree and edge-set helpers the catalog's core index
// otherwise has no use for: a multi-point-per-leaf tree built over whole
// images rather than individual descriptors, and the nearest/radius/union
// edge-set operations used to turn tree queries into deduplicated image
// pairs.
package dedup

import (
	"sort"

	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/matanlotem/spcbir/catalog"
)

// Centroid is a catalog image reduced to the mean of its descriptor set --
// a single point standing in for the whole image in duplicate detection.
type Centroid struct {
	ImageID int
	Coords  []float64
}

// Centroids computes the mean descriptor of every catalog image.
//
// Returns an error if images is empty, a Points tensor isn't a rank-2
// Float64 tensor, or an image has no descriptors.
func Centroids(images []catalog.ImageFeatures) ([]Centroid, error) {
	if len(images) == 0 {
		return nil, errors.Errorf("dedup: centroids requires at least one image")
	}

	out := make([]Centroid, len(images))
	for i, img := range images {
		if img.Points == nil {
			return nil, errors.Errorf("dedup: image %d (id=%d) has nil Points", i, img.ImageID)
		}
		shape := img.Points.Shape()
		if shape.Rank() != 2 {
			return nil, errors.Errorf("dedup: image %d (id=%d) Points must be rank 2, got %s", i, img.ImageID, shape)
		}
		flat, ok := img.Points.Value().([][]float64)
		if !ok {
			return nil, errors.Errorf("dedup: image %d (id=%d) Points must have dtype Float64", i, img.ImageID)
		}
		if len(flat) == 0 {
			return nil, errors.Errorf("dedup: image %d (id=%d) has no descriptors", i, img.ImageID)
		}

		dim := shape.Dimensions[1]
		sum := make([]float64, dim)
		for _, row := range flat {
			for a, v := range row {
				sum[a] += v
			}
		}
		for a := range sum {
			sum[a] /= float64(len(flat))
		}
		out[i] = Centroid{ImageID: img.ImageID, Coords: sum}
	}
	return out, nil
}

// CentroidTree is a k-d tree over a set of image centroids, with multiple
// centroids allowed per leaf -- unlike the descriptor-level kdtree.Tree used
// for voting search, this tree only needs to localize a neighborhood of
// images, not rank individual points, so coarser leaves are cheaper without
// losing precision.
type CentroidTree struct {
	points    []float64 // flat, row-major [n, dim]
	imageIDs  []int
	dimension int
	root      *centroidNode
}

type centroidNode struct {
	min, max   []float64
	start, end int // index range into points/imageIDs
	left, right *centroidNode
	splitAxis  int
	splitValue float64
}

func (n *centroidNode) isLeaf() bool { return n.left == nil && n.right == nil }

// BuildCentroidTree indexes centroids for nearest/radius queries.
//
// minPerLeaf bounds how small a region's point count must fall before
// splitting stops; it must be at least 1.
//
// Returns an error if centroids is empty, centroids have zero dimensions,
// dimensions disagree, or minPerLeaf < 1.
func BuildCentroidTree(centroids []Centroid, minPerLeaf int) (*CentroidTree, error) {
	if len(centroids) == 0 {
		return nil, errors.Errorf("dedup: BuildCentroidTree requires at least one centroid")
	}
	if minPerLeaf < 1 {
		return nil, errors.Errorf("dedup: minPerLeaf must be at least 1, got %d", minPerLeaf)
	}
	dim := len(centroids[0].Coords)
	if dim == 0 {
		return nil, errors.Errorf("dedup: centroids must have at least one dimension")
	}

	points := make([]float64, 0, len(centroids)*dim)
	imageIDs := make([]int, len(centroids))
	for i, c := range centroids {
		if len(c.Coords) != dim {
			return nil, errors.Errorf("dedup: centroid %d has dimension %d, want %d", i, len(c.Coords), dim)
		}
		points = append(points, c.Coords...)
		imageIDs[i] = c.ImageID
	}

	t := &CentroidTree{points: points, imageIDs: imageIDs, dimension: dim}
	t.root = t.buildNode(0, len(centroids), minPerLeaf)
	return t, nil
}

func (t *CentroidTree) buildNode(start, end, minPerLeaf int) *centroidNode {
	dim := t.dimension
	n := &centroidNode{start: start, end: end}
	n.min, n.max = t.boundingBox(start, end)

	if end-start <= minPerLeaf {
		return n
	}

	axis, spread := 0, -1.0
	for a := 0; a < dim; a++ {
		if r := n.max[a] - n.min[a]; r > spread {
			spread, axis = r, a
		}
	}
	if spread == 0 {
		return n
	}
	n.splitAxis = axis

	order := make([]int, end-start)
	for i := range order {
		order[i] = start + i
	}
	sort.Slice(order, func(i, j int) bool {
		return t.points[order[i]*dim+axis] < t.points[order[j]*dim+axis]
	})
	t.reorder(start, order)

	median := start + (end-start)/2
	n.splitValue = t.points[median*dim+axis]
	for median > start && t.points[(median-1)*dim+axis] >= n.splitValue {
		median--
	}
	if median == start {
		return n
	}

	n.left = t.buildNode(start, median, minPerLeaf)
	n.right = t.buildNode(median, end, minPerLeaf)
	return n
}

// reorder permutes points[start:end] and imageIDs[start:end] according to
// order, which holds absolute indices into the same ranges.
func (t *CentroidTree) reorder(start int, order []int) {
	dim := t.dimension
	n := len(order)
	tmpPoints := make([]float64, n*dim)
	tmpIDs := make([]int, n)
	for dst, src := range order {
		copy(tmpPoints[dst*dim:(dst+1)*dim], t.points[src*dim:(src+1)*dim])
		tmpIDs[dst] = t.imageIDs[src]
	}
	copy(t.points[start*dim:(start+n)*dim], tmpPoints)
	copy(t.imageIDs[start:start+n], tmpIDs)
}

func (t *CentroidTree) boundingBox(start, end int) (min, max []float64) {
	dim := t.dimension
	min = make([]float64, dim)
	max = make([]float64, dim)
	copy(min, t.points[start*dim:(start+1)*dim])
	copy(max, t.points[start*dim:(start+1)*dim])
	for i := start + 1; i < end; i++ {
		for a := 0; a < dim; a++ {
			v := t.points[i*dim+a]
			if v < min[a] {
				min[a] = v
			}
			if v > max[a] {
				max[a] = v
			}
		}
	}
	return min, max
}

func squaredDist(a, b []float64) float64 {
	var sum float64
	for i, v := range a {
		d := v - b[i]
		sum += d * d
	}
	return sum
}

// NearestOtherImage returns the image id (and squared distance) of the
// centroid closest to query, excluding excludeImageID -- used to find each
// catalog image's best duplicate candidate without matching itself.
func (t *CentroidTree) NearestOtherImage(query []float64, excludeImageID int) (imageID int, dist2 float64, found bool) {
	best := -1
	bestDist := math64Max
	t.searchNearest(t.root, query, excludeImageID, &best, &bestDist)
	if best < 0 {
		return 0, 0, false
	}
	return t.imageIDs[best], bestDist, true
}

const math64Max = 1.7976931348623157e+308

func (t *CentroidTree) searchNearest(n *centroidNode, query []float64, excludeImageID int, best *int, bestDist *float64) {
	if n.isLeaf() {
		dim := t.dimension
		for i := n.start; i < n.end; i++ {
			if t.imageIDs[i] == excludeImageID {
				continue
			}
			d2 := squaredDist(query, t.points[i*dim:(i+1)*dim])
			if d2 < *bestDist {
				*bestDist = d2
				*best = i
			}
		}
		return
	}

	axis := n.splitAxis
	var first, second *centroidNode
	if query[axis] < n.splitValue {
		first, second = n.left, n.right
	} else {
		first, second = n.right, n.left
	}
	t.searchNearest(first, query, excludeImageID, best, bestDist)

	distToSplit := query[axis] - n.splitValue
	if distToSplit*distToSplit < *bestDist {
		t.searchNearest(second, query, excludeImageID, best, bestDist)
	}
}

// RadiusPairs returns every unordered pair of distinct images whose centroid
// distance is within radius, as a [2, numPairs] Int32 tensor (source <
// target, so each pair appears once) -- the tensor boundary type the rest of
// the catalog machinery also crosses at.
//
// Each point's candidates are found by descending the tree and pruning any
// subtree whose bounding box lies entirely outside radius, rather than
// scanning every other point.
//
// Returns an error if no pairs are found within radius.
func (t *CentroidTree) RadiusPairs(radius float64) (*tensors.Tensor, error) {
	radius2 := radius * radius
	var sources, targets []int32

	dim := t.dimension
	for i := 0; i < len(t.imageIDs); i++ {
		point := t.points[i*dim : (i+1)*dim]
		t.collectRadiusPairs(t.root, i, point, radius2, &sources, &targets)
	}

	if len(sources) == 0 {
		return nil, errors.Errorf("dedup: no image pairs found within radius %g", radius)
	}
	return edgesTensor(sources, targets), nil
}

// collectRadiusPairs descends n looking for points with index > i within
// radius2 of point, pruning any subtree whose bounding box is already
// farther than radius2 away. Only j > i is considered so each pair is
// emitted once across the whole RadiusPairs scan.
func (t *CentroidTree) collectRadiusPairs(n *centroidNode, i int, point []float64, radius2 float64, sources, targets *[]int32) {
	if boxSquaredDistance(point, n.min, n.max) > radius2 {
		return
	}
	if n.isLeaf() {
		dim := t.dimension
		for j := n.start; j < n.end; j++ {
			if j <= i {
				continue
			}
			if squaredDist(point, t.points[j*dim:(j+1)*dim]) <= radius2 {
				a, b := t.imageIDs[i], t.imageIDs[j]
				if a > b {
					a, b = b, a
				}
				*sources = append(*sources, int32(a))
				*targets = append(*targets, int32(b))
			}
		}
		return
	}
	t.collectRadiusPairs(n.left, i, point, radius2, sources, targets)
	t.collectRadiusPairs(n.right, i, point, radius2, sources, targets)
}

// boxSquaredDistance returns the squared distance from point to its nearest
// point inside the axis-aligned box [min, max], or 0 if point is inside it.
func boxSquaredDistance(point, min, max []float64) float64 {
	var sum float64
	for a, v := range point {
		if v < min[a] {
			d := min[a] - v
			sum += d * d
		} else if v > max[a] {
			d := v - max[a]
			sum += d * d
		}
	}
	return sum
}

func edgesTensor(sources, targets []int32) *tensors.Tensor {
	n := len(sources)
	edges := tensors.FromShape(shapes.Make(dtypes.Int32, 2, n))
	tensors.MutableFlatData[int32](edges, func(flat []int32) {
		copy(flat[:n], sources)
		copy(flat[n:], targets)
	})
	return edges
}

// DuplicatePair is one candidate near-duplicate image pair, ordered so
// ImageA < ImageB.
type DuplicatePair struct {
	ImageA, ImageB int
}

// MergeCandidates unions one or more [2, n]Int32 edge tensors (e.g. from
// RadiusPairs at different radii, or hand-built candidate sets), removing
// duplicate pairs, and returns the result sorted by ImageA then ImageB.
//
// Returns an error if edgeSets is empty or a tensor doesn't have shape
// [2, n]Int32.
func MergeCandidates(edgeSets ...*tensors.Tensor) ([]DuplicatePair, error) {
	if len(edgeSets) == 0 {
		return nil, errors.Errorf("dedup: MergeCandidates requires at least one edge set")
	}

	seen := make(map[DuplicatePair]struct{})
	for _, edges := range edgeSets {
		if edges == nil || edges.Shape().Size() == 0 {
			continue
		}
		if edges.Shape().Rank() != 2 || edges.Shape().Dimensions[0] != 2 {
			return nil, errors.Errorf("dedup: edge tensor must have shape [2, n], got %s", edges.Shape())
		}
		if edges.DType() != dtypes.Int32 {
			return nil, errors.Errorf("dedup: edge tensor must have dtype Int32, got %s", edges.DType())
		}
		n := edges.Shape().Dimensions[1]
		flat, ok := edges.Value().([][]int32)
		if !ok {
			return nil, errors.Errorf("dedup: could not read edge tensor values")
		}
		sources, targets := flat[0], flat[1]
		for i := 0; i < n; i++ {
			seen[DuplicatePair{ImageA: int(sources[i]), ImageB: int(targets[i])}] = struct{}{}
		}
	}

	pairs := make([]DuplicatePair, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].ImageA != pairs[j].ImageA {
			return pairs[i].ImageA < pairs[j].ImageA
		}
		return pairs[i].ImageB < pairs[j].ImageB
	})
	return pairs, nil
}
