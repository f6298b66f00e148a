package main

import (
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/matanlotem/spcbir/descriptor"
)

// descriptorsToTensor packs a flat descriptor slice into the [n, dim]Float64
// tensor shape catalog.Ingest and dedup.Centroids expect.
func descriptorsToTensor(descriptors []descriptor.Descriptor, dim int) *tensors.Tensor {
	t := tensors.FromShape(shapes.Make(dtypes.Float64, len(descriptors), dim))
	tensors.MutableFlatData[float64](t, func(flat []float64) {
		for i, d := range descriptors {
			copy(flat[i*dim:(i+1)*dim], d.Coords())
		}
	})
	return t
}
