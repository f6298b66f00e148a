package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matanlotem/spcbir/catalog"
	"github.com/matanlotem/spcbir/dedup"
	"github.com/matanlotem/spcbir/internal/featurecache"
)

func newDedupCommand() *cobra.Command {
	var radius float64
	var minPerLeaf int

	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "report catalog images whose feature centroids are near-duplicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger()
			if err != nil {
				return err
			}

			var images []catalog.ImageFeatures
			for i := 0; i < cfg.NumImages; i++ {
				path := featurecache.Path(cfg.ImagesDirectory, cfg.ImagesPrefix, i)
				descriptors, err := featurecache.Load(path, cfg.PCADimension, i)
				if err != nil {
					return err
				}
				images = append(images, catalog.ImageFeatures{ImageID: i, Points: descriptorsToTensor(descriptors, cfg.PCADimension)})
			}

			centroids, err := dedup.Centroids(images)
			if err != nil {
				return err
			}
			tree, err := dedup.BuildCentroidTree(centroids, minPerLeaf)
			if err != nil {
				return err
			}
			edges, err := tree.RadiusPairs(radius)
			if err != nil {
				log.WithError(err).Info("no near-duplicate pairs found")
				return nil
			}
			pairs, err := dedup.MergeCandidates(edges)
			if err != nil {
				return err
			}

			for _, p := range pairs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  ~  %s\n", imagePath(cfg, p.ImageA), imagePath(cfg, p.ImageB))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&radius, "radius", 1.0, "maximum centroid distance to consider two images near-duplicates")
	cmd.Flags().IntVar(&minPerLeaf, "min-per-leaf", 16, "centroid-tree regions with at most this many points are not split further")
	return cmd
}
