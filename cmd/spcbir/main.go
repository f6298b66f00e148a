// Command spcbir is the catalog-build and query-loop front end for the
// content-based image retrieval engine, grounded in main.cpp/main_aux.cpp's
// two-phase shape: a preprocessing pass over the catalog, followed by an
// interactive "enter an image, print its best candidates" loop that reads
// until the QUERY_EXIT_STR sentinel.
//
// Feature extraction itself (SIFT/PCA) is out of scope -- per-image
// descriptor sets are read from ".feats" side-car files, the same
// precomputed-features path the original supports alongside live
// extraction.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/matanlotem/spcbir/internal/config"
	"github.com/matanlotem/spcbir/internal/logging"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "spcbir",
		Short:         "content-based image retrieval over a k-d tree catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFilename, "path to the catalog configuration file")

	root.AddCommand(newBuildCommand())
	root.AddCommand(newQueryCommand())
	root.AddCommand(newDedupCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "spcbir: error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfigAndLogger is the shared setup every subcommand starts from.
func loadConfigAndLogger() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LoggerLevel, cfg.LoggerFilename)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
