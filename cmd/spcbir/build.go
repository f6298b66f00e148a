package main

import (
	"github.com/spf13/cobra"

	"github.com/matanlotem/spcbir/internal/featurecache"
)

func newBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "validate the catalog's precomputed feature files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger()
			if err != nil {
				return err
			}

			var missing int
			for i := 0; i < cfg.NumImages; i++ {
				path := featurecache.Path(cfg.ImagesDirectory, cfg.ImagesPrefix, i)
				if _, err := featurecache.Load(path, cfg.PCADimension, i); err != nil {
					log.WithError(err).WithField("image", i).Warn("could not load features file")
					missing++
					continue
				}
				log.WithField("image", i).Info("loaded features file")
			}

			if missing > 0 {
				log.Warnf("%d of %d images are missing a usable features file", missing, cfg.NumImages)
			}
			return nil
		},
	}
}
