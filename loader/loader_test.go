package loader

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	osmDoc = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
  <node id="1" lat="48.85" lon="2.34"/>
  <node id="2" lat="48.86" lon="2.36"/>
  <way id="10"><nd ref="1"/><nd ref="2"/><tag k="highway" v="primary"/></way>
</osm>`

	geojsonDoc = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"waterway":"river"},
   "geometry":{"type":"LineString","coordinates":[[2.30,48.85],[2.31,48.86]]}},
  {"type":"Feature","properties":{"amenity":"cafe"},
   "geometry":{"type":"Point","coordinates":[2.35,48.855]}}
]}`

	gpxDoc = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <wpt lat="48.8584" lon="2.2945"><name>Tour Eiffel</name></wpt>
  <trk><trkseg>
    <trkpt lat="48.8566" lon="2.3522"/>
    <trkpt lat="48.8570" lon="2.3530"/>
  </trkseg></trk>
</gpx>`
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFiles(t *testing.T) {
	dir, err := ioutil.TempDir(os.TempDir(), "vectormap-loader-")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fs, err := LoadFiles(context.Background(),
		write(t, dir, "paris.osm", osmDoc),
		write(t, dir, "river.geojson", geojsonDoc),
		write(t, dir, "run.GPX", gpxDoc),
	)
	require.NoError(t, err)

	require.Len(t, fs.Ways, 2)
	require.Len(t, fs.Tracks, 1)
	require.Equal(t, "primary", fs.Ways[0].Tags["highway"])
	require.Equal(t, "river", fs.Ways[1].Tags["waterway"])

	// synthesized ids of the geojson and gpx inputs do not collide
	pts := fs.WayPoints(&fs.Ways[1])
	require.Len(t, pts, 2)
	require.Equal(t, 2.30, pts[0].Lon)

	var cafe, waypoint bool
	for _, n := range fs.Nodes {
		if n.Tags["amenity"] == "cafe" {
			cafe = true
		}
		if n.Tags["name"] == "Tour Eiffel" {
			waypoint = true
		}
	}
	require.True(t, cafe)
	require.True(t, waypoint)
}

func TestLoadFile_Unknown(t *testing.T) {
	_, err := LoadFile(context.Background(), "map.shp")
	require.Error(t, err)

	_, err = LoadFiles(context.Background(), "/nonexistent/map.gpx")
	require.Error(t, err)
}
