// Package search implements the image-similarity voting routine on top of a
// built kdtree.Tree: for each descriptor of a query image, run a bounded
// k-nearest-neighbour search and accumulate per-catalog-image votes under a
// per-query-descriptor de-duplication rule, then rank catalog images by
// vote count.
package search

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/matanlotem/spcbir/descriptor"
	"github.com/matanlotem/spcbir/kdtree"
	"github.com/matanlotem/spcbir/spcbirerr"
)

// FindSimilar returns the m catalog image identifiers most similar to the
// query image described by queryDescriptors.
//
// For each query descriptor, the k nearest catalog descriptors are found;
// each contributes at most one vote to its image (a single query descriptor
// can never cast more than one vote for the same catalog image, even if
// several of its k nearest neighbours live in that image). The m images
// with the most votes are returned, ties broken by the lowest image id;
// if fewer than m images received any vote, the output is padded with the
// lowest-index unranked image ids in ascending order.
//
// Returns InvalidArgument if queryDescriptors is empty, k <= 0, m <= 0,
// numImages <= 0, m > numImages, or a descriptor's dimension doesn't match
// tree.Dim.
func FindSimilar(tree *kdtree.Tree, queryDescriptors []descriptor.Descriptor, k, m, numImages int, log *logrus.Entry) ([]int, error) {
	if len(queryDescriptors) == 0 {
		return nil, spcbirerr.New(spcbirerr.InvalidArgument, "search: FindSimilar requires at least one query descriptor")
	}
	if k <= 0 {
		return nil, spcbirerr.New(spcbirerr.InvalidArgument, "search: k must be positive, got %d", k)
	}
	if m <= 0 {
		return nil, spcbirerr.New(spcbirerr.InvalidArgument, "search: m must be positive, got %d", m)
	}
	if numImages <= 0 {
		return nil, spcbirerr.New(spcbirerr.InvalidArgument, "search: numImages must be positive, got %d", numImages)
	}
	if m > numImages {
		return nil, spcbirerr.New(spcbirerr.InvalidArgument, "search: m (%d) must not exceed numImages (%d)", m, numImages)
	}

	votes := make([]int, numImages)
	lastSeen := make([]int, numImages)
	for i := range lastSeen {
		lastSeen[i] = -1
	}

	for i, qd := range queryDescriptors {
		result, err := tree.KNNSearch(qd.Coords(), k)
		if err != nil {
			return nil, spcbirerr.Wrap(spcbirerr.InvalidArgument, err, fmt.Sprintf("search: query descriptor %d", i))
		}
		for _, e := range result.Elements() {
			if e.ImageID < 0 || e.ImageID >= numImages {
				return nil, spcbirerr.New(spcbirerr.InvalidArgument, "search: KNN result references image id %d outside [0, %d)", e.ImageID, numImages)
			}
			if lastSeen[e.ImageID] < i {
				votes[e.ImageID]++
				lastSeen[e.ImageID] = i
			}
		}
	}

	ranked := make([]int, numImages)
	for i := range ranked {
		ranked[i] = i
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if votes[a] != votes[b] {
			return votes[a] > votes[b]
		}
		return a < b
	})

	if log != nil {
		log.WithFields(logrus.Fields{
			"num_query_descriptors": len(queryDescriptors),
			"k":                     k,
			"m":                     m,
			"top_image_id":          ranked[0],
			"top_image_votes":       votes[ranked[0]],
		}).Debug("find_similar ranked candidates")
	}

	return ranked[:m], nil
}
