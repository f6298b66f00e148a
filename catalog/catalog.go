// Package catalog implements the feature-set ingestion glue: it consumes,
// per catalog image, the descriptor set produced by the extractor (or the
// feature-cache loader) and concatenates them into the single flat
// descriptor array that kdtree.Build indexes.
//
// Per-image feature matrices cross this boundary as *tensors.Tensor, shaped
// [numDescriptors, dim], the same way geometry.NearestEdges and
// geometry.RadiusEdges take their point sets in gomlx-gnn, the package this
// ingestion boundary is adapted from -- the core algorithms underneath
// still operate on descriptor.Descriptor and flat []float64.
package catalog

import (
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/pkg/errors"

	"github.com/matanlotem/spcbir/descriptor"
)

// ImageFeatures is one catalog image's descriptor set, tagged with the
// image's identifier.
type ImageFeatures struct {
	ImageID int
	// Points is shaped [numDescriptors, dim] of Float64.
	Points *tensors.Tensor
}

// Ingest concatenates the descriptor sets of every catalog image, in the
// order given, into a single descriptor slice suitable for kdtree.Build.
// Every image's Points tensor must share the same dim (last-axis size); the
// tensor's dtype must be Float64.
//
// Returns an error if images is empty, a tensor is nil or has the wrong rank
// or dtype, or dimensions disagree across images.
func Ingest(images []ImageFeatures) ([]descriptor.Descriptor, error) {
	if len(images) == 0 {
		return nil, errors.Errorf("catalog: ingest requires at least one image")
	}

	var dim int
	var out []descriptor.Descriptor
	for i, img := range images {
		if img.Points == nil {
			return nil, errors.Errorf("catalog: image %d (id=%d) has nil Points", i, img.ImageID)
		}
		shape := img.Points.Shape()
		if shape.Rank() != 2 {
			return nil, errors.Errorf("catalog: image %d (id=%d) Points must be rank 2 [n, dim], got %s", i, img.ImageID, shape)
		}
		if i == 0 {
			dim = shape.Dimensions[1]
		} else if shape.Dimensions[1] != dim {
			return nil, errors.Errorf("catalog: image %d (id=%d) has dimension %d, want %d", i, img.ImageID, shape.Dimensions[1], dim)
		}

		numPoints := shape.Dimensions[0]
		flat, ok := img.Points.Value().([][]float64)
		if !ok {
			return nil, errors.Errorf("catalog: image %d (id=%d) Points must have dtype Float64", i, img.ImageID)
		}
		if len(flat) != numPoints {
			return nil, errors.Errorf("catalog: image %d (id=%d) tensor value has %d rows, want %d", i, img.ImageID, len(flat), numPoints)
		}

		for _, coords := range flat {
			d, err := descriptor.New(coords, dim, img.ImageID)
			if err != nil {
				return nil, errors.WithMessagef(err, "catalog: image %d (id=%d)", i, img.ImageID)
			}
			out = append(out, d)
		}
	}
	return out, nil
}
