package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/matanlotem/spcbir/descriptor"
	"github.com/matanlotem/spcbir/internal/config"
	"github.com/matanlotem/spcbir/internal/featurecache"
	"github.com/matanlotem/spcbir/kdtree"
	"github.com/matanlotem/spcbir/search"
)

func newQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "interactively find the best-candidate catalog images for a query image",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger()
			if err != nil {
				return err
			}

			var descriptors []descriptor.Descriptor
			for i := 0; i < cfg.NumImages; i++ {
				path := featurecache.Path(cfg.ImagesDirectory, cfg.ImagesPrefix, i)
				ds, err := featurecache.Load(path, cfg.PCADimension, i)
				if err != nil {
					return err
				}
				descriptors = append(descriptors, ds...)
			}

			var rng kdtree.RandomSource
			if cfg.SplitMethod == kdtree.Random {
				rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
			}
			tree, err := kdtree.Build(descriptors, cfg.SplitMethod, rng)
			if err != nil {
				return err
			}
			log.WithField("descriptors", len(descriptors)).Info("catalog index built")

			return queryLoop(cmd.InOrStdin(), cmd.OutOrStdout(), cfg, tree, log)
		},
	}
}

// queryLoop mirrors main_aux.cpp's interactive prompt: read a path to a
// query image's ".feats" file, print its ranked candidates, repeat until the
// user enters config.QueryExitSentinel.
func queryLoop(in io.Reader, out io.Writer, cfg *config.Config, tree *kdtree.Tree, log *logrus.Logger) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Please enter an image path:\n")
		if !scanner.Scan() {
			break
		}
		path := scanner.Text()
		if path == config.QueryExitSentinel {
			fmt.Fprint(out, "Exiting...\n")
			return nil
		}

		// imageID is irrelevant for a query descriptor set -- FindSimilar
		// only reads coordinates off it -- so 0 is as good as any value.
		query, err := featurecache.Load(path, cfg.PCADimension, 0)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("could not load query features")
			continue
		}

		ranked, err := search.FindSimilar(tree, query, cfg.KNN, cfg.NumOfSimilarImages, cfg.NumImages, log.WithField("query", path))
		if err != nil {
			log.WithError(err).Warn("search failed")
			continue
		}

		if cfg.MinimalGUI {
			for _, id := range ranked {
				fmt.Fprintln(out, imagePath(cfg, id))
			}
		} else {
			fmt.Fprintf(out, "Best candidates for - %s - are:\n", path)
			for _, id := range ranked {
				fmt.Fprintln(out, imagePath(cfg, id))
			}
		}
	}
	return scanner.Err()
}

func imagePath(cfg *config.Config, imageID int) string {
	return filepath.Join(cfg.ImagesDirectory, fmt.Sprintf("%s%d%s", cfg.ImagesPrefix, imageID, cfg.ImagesSuffix))
}
