// Package featurecache loads and saves per-image descriptor sets to the
// ".feats" side-car files, avoiding a costly re-extraction on every run.
// The format is grounded directly in
// main_aux.cpp's spLoadFeaturesFile/spSaveFeaturesFile: a first line holding
// the descriptor count, followed by that many lines of dim
// whitespace-separated floats.
package featurecache

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/matanlotem/spcbir/descriptor"
)

// Suffix is the cache file's extension, grounded in SP_FEATURES_SUFFIX.
const Suffix = ".feats"

// Path builds the conventional features-file path for an image, mirroring
// spConfigGetFeaturesPath's "<dir>/<prefix><index><suffix>" scheme.
func Path(dir, prefix string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%d%s", prefix, index, Suffix))
}

// Load reads a single image's descriptor set from its ".feats" file.
//
// Returns an error if the file cannot be opened, the leading count is not a
// valid non-negative integer, or the number of values read does not equal
// count*dim -- the same "file format does not match" failure the original
// reports via ERRORMSG_FEATS_LOAD_FRMT.
func Load(path string, dim, imageID int) ([]descriptor.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "featurecache: could not open %q for reading", path)
	}
	defer f.Close()
	return load(f, dim, imageID)
}

func load(r io.Reader, dim, imageID int) ([]descriptor.Descriptor, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Split(bufio.ScanWords)

	if !scanner.Scan() {
		return nil, errors.Errorf("featurecache: empty features file")
	}
	count, err := strconv.Atoi(scanner.Text())
	if err != nil || count < 0 {
		return nil, errors.Errorf("featurecache: invalid descriptor count %q", scanner.Text())
	}

	values := make([]float64, 0, count*dim)
	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, errors.WithMessage(err, "featurecache: invalid value")
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithMessage(err, "featurecache: read")
	}

	if len(values) != count*dim {
		return nil, errors.Errorf(
			"featurecache: file format does not match number of features and PCA dimension (got %d values, want %d*%d=%d)",
			len(values), count, dim, count*dim)
	}

	out := make([]descriptor.Descriptor, count)
	for i := 0; i < count; i++ {
		d, err := descriptor.New(values[i*dim:(i+1)*dim], dim, imageID)
		if err != nil {
			return nil, errors.WithMessagef(err, "featurecache: descriptor %d", i)
		}
		out[i] = d
	}
	return out, nil
}

// Save writes an image's descriptor set to its ".feats" file, one descriptor
// per line, space-separated coordinates, preceded by a count line.
//
// Returns an error if descriptors is empty or the file cannot be created.
func Save(path string, descriptors []descriptor.Descriptor) error {
	if len(descriptors) == 0 {
		return errors.Errorf("featurecache: cannot save an empty descriptor set")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WithMessagef(err, "featurecache: could not open %q for writing", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d\n", len(descriptors))
	for _, d := range descriptors {
		coords := d.Coords()
		parts := make([]string, len(coords))
		for i, c := range coords {
			parts[i] = strconv.FormatFloat(c, 'f', 6, 64)
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}
	return w.Flush()
}
