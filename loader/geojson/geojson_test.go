package geojson

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akhenakh/vectormap"
)

const collection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"amenity": "restaurant", "name": "Chez Paul", "osm_id": 42},
      "geometry": {"type": "Point", "coordinates": [2.3522, 48.8566]}
    },
    {
      "type": "Feature",
      "properties": {"highway": "primary", "lanes": 2, "oneway": true},
      "geometry": {"type": "LineString", "coordinates": [[2.34, 48.85], [2.35, 48.86], [2.36, 48.86]]}
    },
    {
      "type": "Feature",
      "properties": {"natural": "water"},
      "geometry": {"type": "Polygon", "coordinates": [[[2.30, 48.80], [2.31, 48.80], [2.31, 48.81], [2.30, 48.80]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "morning run", "coordTimes": ["2021-04-04T08:00:00Z", "2021-04-04T08:05:00Z"]},
      "geometry": {"type": "LineString", "coordinates": [[2.34, 48.85, 35], [2.35, 48.86, 41.5]]}
    },
    {
      "type": "Feature",
      "properties": {"tags": {"building": "yes"}},
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[2.32, 48.82], [2.33, 48.82], [2.33, 48.83], [2.32, 48.82]]],
        [[[2.34, 48.82], [2.35, 48.82], [2.35, 48.83], [2.34, 48.82]]]
      ]}
    },
    {
      "type": "Feature",
      "properties": {"type": "track"},
      "geometry": {"type": "MultiLineString", "coordinates": [[[2.1, 48.1], [2.2, 48.2]], [[2.3, 48.3], [2.4, 48.4]]]}
    }
  ]
}`

func TestLoad(t *testing.T) {
	fs, err := Load(strings.NewReader(collection))
	require.NoError(t, err)

	require.Len(t, fs.Ways, 4)
	require.Len(t, fs.Tracks, 3)

	poi, ok := fs.Node(42)
	require.True(t, ok)
	require.Equal(t, "Chez Paul", poi.Tags["name"])
	require.Equal(t, "42", poi.Tags["osm_id"])
	require.InDelta(t, 48.8566, poi.Point.Lat, 1e-9)

	road := fs.Ways[0]
	require.Equal(t, "primary", road.Tags["highway"])
	require.Equal(t, "2", road.Tags["lanes"])
	require.Equal(t, "true", road.Tags["oneway"])
	require.Len(t, fs.WayPoints(&road), 3)
	require.False(t, road.Closed())

	water := fs.Ways[1]
	require.True(t, water.Closed())
	require.Len(t, water.NodeIDs, 4)
	require.Len(t, fs.WayPoints(&water), 4)

	for _, b := range fs.Ways[2:] {
		require.Equal(t, vectormap.Tags{"building": "yes"}, b.Tags)
		require.True(t, b.Closed())
	}

	run := fs.Tracks[0]
	require.Equal(t, "morning run", run.Name)
	require.Len(t, run.Points, 2)
	require.NotNil(t, run.Points[1].Point.Elevation)
	require.Equal(t, 41.5, *run.Points[1].Point.Elevation)
	require.True(t, run.Points[1].Time.Equal(time.Date(2021, 4, 4, 8, 5, 0, 0, time.UTC)))

	require.True(t, fs.Tracks[1].Points[0].Time.IsZero())
	require.Equal(t, 48.3, fs.Tracks[2].Points[0].Point.Lat)

	// synthesized ids never collide with positive osm ids
	for _, n := range fs.Nodes {
		if n.ID != 42 {
			require.Less(t, n.ID, int64(0))
		}
	}
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(strings.NewReader(`{"type": "FeatureCollection", "features": [`))
	require.Error(t, err)
}

func TestTags(t *testing.T) {
	require.Nil(t, Tags(nil))
	require.Nil(t, Tags(map[string]interface{}{"nested": []interface{}{1}}))
	require.Equal(t, vectormap.Tags{"a": "1.5"}, Tags(map[string]interface{}{"a": 1.5}))
}
