// Package config loads the catalog configuration file: n_images, the PCA
// dimension d, the per-image feature cap, K, M, and the split method, plus
// the ambient images-directory/logger settings the original SPConfig.c
// also carried.
//
// The file format is a flat "key = value" text file, one assignment per
// line, '#'-prefixed or blank lines ignored -- the same shape SPConfig.c
// parses with its trim/splitTrim/streq helpers. This is implemented on the
// standard library because no ini/key-value config library appears
// anywhere in the retrieved pack; see DESIGN.md.
package config

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/matanlotem/spcbir/internal/logging"
	"github.com/matanlotem/spcbir/kdtree"
)

// Defaults and constraints, taken verbatim from SPConsts.h.
const (
	DefaultPCADimension     = 20
	MinPCADimension         = 10
	MaxPCADimension         = 28
	DefaultNumOfFeatures    = 100
	DefaultNumOfSimilar     = 1
	DefaultKNN              = 1
	DefaultLoggerLevel      = logging.InfoLevel
	DefaultLoggerFilename   = "stdout"
	DefaultPCAFilename      = "pca.yml"
	DefaultSplitMethod      = kdtree.MaxSpread
	FeaturesFileSuffix      = ".feats"
	defaultConfigFilename   = "spcbir.config"
	queryExitSentinel       = "<>"
)

// QueryExitSentinel is the CLI's interactive-loop exit token, grounded in
// the original's QUERY_EXIT_STR.
const QueryExitSentinel = queryExitSentinel

// DefaultConfigFilename is the filename spcbir looks for when none is given
// on the command line, grounded in the original's CONFIG_DEFAULT_FILE.
const DefaultConfigFilename = defaultConfigFilename

// Config holds a fully parsed, defaulted catalog configuration.
type Config struct {
	// ImagesDirectory, ImagesPrefix, ImagesSuffix, NumImages have no
	// default: Load returns an error if any is missing.
	ImagesDirectory string
	ImagesPrefix    string
	ImagesSuffix    string
	NumImages       int

	PCADimension   int
	PCAFilename    string
	NumOfFeatures  int
	ExtractionMode bool

	NumOfSimilarImages int // M
	KNN                int // K
	SplitMethod        kdtree.SplitMethod

	MinimalGUI     bool
	LoggerLevel    logging.Level
	LoggerFilename string
}

var allowedImageSuffixes = []string{".jpg", ".png", ".bmp", ".gif"}

// Load reads and parses the configuration file at path.
//
// Returns an error for a malformed line, an unknown key, an out-of-constraint
// value, or a missing required key (spImagesDirectory, spImagesPrefix,
// spImagesSuffix, spNumOfImages).
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "config: could not open %q", path)
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) (*Config, error) {
	cfg := &Config{
		PCADimension:       DefaultPCADimension,
		PCAFilename:        DefaultPCAFilename,
		NumOfFeatures:      DefaultNumOfFeatures,
		ExtractionMode:     true,
		NumOfSimilarImages: DefaultNumOfSimilar,
		KNN:                DefaultKNN,
		SplitMethod:        DefaultSplitMethod,
		MinimalGUI:         false,
		LoggerLevel:        DefaultLoggerLevel,
		LoggerFilename:     DefaultLoggerFilename,
	}

	var haveDir, havePrefix, haveSuffix, haveNumImages bool

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		key, val, ok := splitTrim(scanner.Text(), '=')
		if (!ok && key == "") || strings.HasPrefix(key, "#") {
			continue
		}
		if !ok || key == "" {
			return nil, errors.Errorf("config: line %d: malformed line, want \"key = value\"", lineNum)
		}

		var err error
		switch key {
		case "spImagesDirectory":
			cfg.ImagesDirectory = val
			haveDir = true
		case "spImagesPrefix":
			cfg.ImagesPrefix = val
			havePrefix = true
		case "spImagesSuffix":
			err = parseEnum(val, allowedImageSuffixes, &cfg.ImagesSuffix)
			haveSuffix = true
		case "spNumOfImages":
			err = parseInt(val, 1, math.MaxInt32, &cfg.NumImages)
			haveNumImages = true
		case "spPCADimension":
			err = parseInt(val, MinPCADimension, MaxPCADimension, &cfg.PCADimension)
		case "spPCAFilename":
			cfg.PCAFilename = val
		case "spNumOfFeatures":
			err = parseInt(val, 1, math.MaxInt32, &cfg.NumOfFeatures)
		case "spExtractionMode":
			err = parseBool(val, &cfg.ExtractionMode)
		case "spNumOfSimilarImages":
			err = parseInt(val, 1, math.MaxInt32, &cfg.NumOfSimilarImages)
		case "spKDTreeSplitMethod":
			err = parseSplitMethod(val, &cfg.SplitMethod)
		case "spKNN":
			err = parseInt(val, 1, math.MaxInt32, &cfg.KNN)
		case "spMinimalGUI":
			err = parseBool(val, &cfg.MinimalGUI)
		case "spLoggerLevel":
			var level int
			err = parseInt(val, int(logging.ErrorLevel), int(logging.DebugLevel), &level)
			if err == nil {
				cfg.LoggerLevel = logging.Level(level)
			}
		case "spLoggerFilename":
			cfg.LoggerFilename = val
		default:
			return nil, errors.Errorf("config: line %d: unknown key %q", lineNum, key)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "config: line %d", lineNum)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithMessage(err, "config: read")
	}

	var missing []string
	if !haveDir {
		missing = append(missing, "spImagesDirectory")
	}
	if !havePrefix {
		missing = append(missing, "spImagesPrefix")
	}
	if !haveSuffix {
		missing = append(missing, "spImagesSuffix")
	}
	if !haveNumImages {
		missing = append(missing, "spNumOfImages")
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("config: missing required key(s): %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// splitTrim splits "key <sep> value" into trimmed key/value, mirroring the
// original's splitTrim. ok is false if sep doesn't appear in line.
func splitTrim(line string, sep byte) (key, val string, ok bool) {
	idx := strings.IndexByte(line, sep)
	if idx < 0 {
		return strings.TrimSpace(line), "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

func parseInt(val string, min, max int, dst *int) error {
	n, err := strconv.Atoi(val)
	if err != nil {
		return errors.Errorf("invalid integer %q", val)
	}
	if n < min || n > max {
		return errors.Errorf("integer %d out of range [%d, %d]", n, min, max)
	}
	*dst = n
	return nil
}

func parseBool(val string, dst *bool) error {
	switch val {
	case "true":
		*dst = true
	case "false":
		*dst = false
	default:
		return errors.Errorf("invalid boolean %q, want \"true\" or \"false\"", val)
	}
	return nil
}

func parseEnum(val string, allowed []string, dst *string) error {
	for _, a := range allowed {
		if a == val {
			*dst = val
			return nil
		}
	}
	return errors.Errorf("value %q not in allowed set %v", val, allowed)
}

func parseSplitMethod(val string, dst *kdtree.SplitMethod) error {
	switch val {
	case "RANDOM":
		*dst = kdtree.Random
	case "MAX_SPREAD":
		*dst = kdtree.MaxSpread
	case "INCREMENTAL":
		*dst = kdtree.Incremental
	default:
		return errors.Errorf("invalid split method %q, want RANDOM, MAX_SPREAD, or INCREMENTAL", val)
	}
	return nil
}
