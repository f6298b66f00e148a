// Package descriptor defines the immutable feature-point type shared by the
// rest of the catalog: a fixed-dimension coordinate vector tagged with the
// identifier of the catalog image it was extracted from.
package descriptor

import (
	"slices"

	"github.com/gomlx/exceptions"

	"github.com/matanlotem/spcbir/spcbirerr"
)

// Descriptor is a fixed-dimension, real-valued feature point produced by an
// (external) extractor for one catalog image. It is a pure value type: once
// created it is never mutated.
type Descriptor struct {
	dim     int
	imageID int
	coords  []float64
}

// New creates a Descriptor, taking a defensive copy of coords.
//
// Returns InvalidArgument if dim <= 0, imageID < 0, coords is nil, or
// len(coords) != dim.
func New(coords []float64, dim, imageID int) (Descriptor, error) {
	if dim <= 0 {
		return Descriptor{}, spcbirerr.New(spcbirerr.InvalidArgument, "descriptor: dimension must be positive, got %d", dim)
	}
	if imageID < 0 {
		return Descriptor{}, spcbirerr.New(spcbirerr.InvalidArgument, "descriptor: imageID must be non-negative, got %d", imageID)
	}
	if coords == nil {
		return Descriptor{}, spcbirerr.New(spcbirerr.InvalidArgument, "descriptor: coords must not be nil")
	}
	if len(coords) != dim {
		return Descriptor{}, spcbirerr.New(spcbirerr.InvalidArgument, "descriptor: coords has length %d, want dim=%d", len(coords), dim)
	}
	return Descriptor{
		dim:     dim,
		imageID: imageID,
		coords:  slices.Clone(coords),
	}, nil
}

// Dim returns the descriptor's dimension.
func (p Descriptor) Dim() int { return p.dim }

// ImageID returns the identifier of the catalog image this descriptor was
// extracted from.
func (p Descriptor) ImageID() int { return p.imageID }

// Coord returns the coordinate on the given axis.
//
// Panics if axis is out of [0, Dim()) -- this is a programmer error, not a
// recoverable condition.
func (p Descriptor) Coord(axis int) float64 {
	if axis < 0 || axis >= p.dim {
		exceptions.Panicf("descriptor: axis %d out of range [0, %d)", axis, p.dim)
	}
	return p.coords[axis]
}

// Coords returns the full coordinate vector. Callers must not mutate the
// returned slice.
func (p Descriptor) Coords() []float64 { return p.coords }

// SquaredL2 returns the squared Euclidean distance between p and q.
//
// Panics if the two descriptors have different dimensions.
func (p Descriptor) SquaredL2(q Descriptor) float64 {
	if p.dim != q.dim {
		exceptions.Panicf("descriptor: squared L2 requires matching dimensions, got %d and %d", p.dim, q.dim)
	}
	var sum float64
	for a := 0; a < p.dim; a++ {
		d := p.coords[a] - q.coords[a]
		sum += d * d
	}
	return sum
}
