// Package loader reads map inputs into a FeatureSet, the decoder is chosen from the file extension.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/loader/geojson"
	"github.com/akhenakh/vectormap/loader/gpx"
	"github.com/akhenakh/vectormap/loader/osmxml"
)

// LoadFile decodes one input file: .osm, .xml, .osm.pbf, .geojson, .json or .gpx
func LoadFile(ctx context.Context, path string) (*vectormap.FeatureSet, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".osm", ".xml", ".pbf":
		return osmxml.LoadFile(ctx, path)
	case ".geojson", ".json", ".gpx":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if ext == ".gpx" {
			return gpx.Load(f)
		}
		return geojson.Load(f)
	default:
		return nil, errors.Errorf("file extension %q for file %q is not handled", ext, path)
	}
}

// LoadFiles decodes and merges every path in order
func LoadFiles(ctx context.Context, paths ...string) (*vectormap.FeatureSet, error) {
	fs := vectormap.NewFeatureSet()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lfs, err := LoadFile(ctx, path)
		if err != nil {
			return nil, errors.Wrapf(err, "can't load %s", path)
		}
		fs.Merge(lfs)
	}
	return fs, nil
}
