// Package osmxml loads OpenStreetMap extracts into a FeatureSet.
package osmxml

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"

	"github.com/akhenakh/vectormap"
)

// Scanner what both the xml and pbf scanners offer
type Scanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

// Load reads nodes and ways from an OSM XML stream
func Load(ctx context.Context, r io.Reader) (*vectormap.FeatureSet, error) {
	return LoadScanner(osmxml.New(ctx, r))
}

// LoadPBF reads nodes and ways from an OSM PBF stream
func LoadPBF(ctx context.Context, r io.Reader, procs int) (*vectormap.FeatureSet, error) {
	return LoadScanner(osmpbf.New(ctx, r, procs))
}

// LoadFile picks the decoder from the file extension
func LoadFile(ctx context.Context, path string) (*vectormap.FeatureSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".pbf"):
		return LoadPBF(ctx, f, 4)
	case filepath.Ext(path) == ".osm" || filepath.Ext(path) == ".xml":
		return Load(ctx, f)
	default:
		return nil, errors.Errorf("file extension %q for file %q is not handled", filepath.Ext(path), path)
	}
}

// LoadScanner drains scanner into a FeatureSet, relations are ignored
func LoadScanner(scanner Scanner) (*vectormap.FeatureSet, error) {
	defer scanner.Close()

	fs := vectormap.NewFeatureSet()
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			fs.AddNode(vectormap.Node{
				ID:    int64(o.ID),
				Point: vectormap.GeoPoint{Lat: o.Lat, Lon: o.Lon},
				Tags:  tags(o.Tags),
			})
		case *osm.Way:
			ids := make([]int64, len(o.Nodes))
			for i, wn := range o.Nodes {
				ids[i] = int64(wn.ID)
			}
			fs.AddWay(vectormap.Way{
				ID:      int64(o.ID),
				NodeIDs: ids,
				Tags:    tags(o.Tags),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "can't scan osm data")
	}

	return fs, nil
}

func tags(t osm.Tags) vectormap.Tags {
	if len(t) == 0 {
		return nil
	}
	return vectormap.Tags(t.Map())
}
