package gpx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akhenakh/vectormap"
)

const gpx10 = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.0" creator="test" xmlns="http://www.topografix.com/GPX/1/0">
  <trk>
    <name>old device</name>
    <trkseg>
      <trkpt lat="47.2184" lon="-1.5536"><ele>12</ele></trkpt>
      <trkpt lat="47.2190" lon="-1.5540"/>
    </trkseg>
  </trk>
</gpx>`

const doc = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <wpt lat="48.8584" lon="2.2945">
    <ele>35</ele>
    <name> Tour Eiffel </name>
    <sym>Flag</sym>
  </wpt>
  <rte>
    <name>detour</name>
    <rtept lat="48.85" lon="2.29"/>
    <rtept lat="48.86" lon="2.30"/>
  </rte>
  <trk>
    <name>morning run</name>
    <trkseg>
      <trkpt lat="48.8566" lon="2.3522"><ele>35.4</ele><time>2021-04-04T08:00:00Z</time></trkpt>
      <trkpt lat="48.8570" lon="2.3530"><ele>36.1</ele><time>2021-04-04T08:00:05Z</time></trkpt>
      <trkpt lat="48.8575" lon="2.3540"/>
    </trkseg>
    <trkseg/>
    <trkseg>
      <trkpt lat="48.86" lon="2.36"/>
    </trkseg>
  </trk>
</gpx>`

func TestLoad(t *testing.T) {
	fs, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, fs.Nodes, 1)
	wpt := fs.Nodes[0]
	require.Equal(t, vectormap.Tags{WaypointTag: "waypoint", "name": "Tour Eiffel", "sym": "Flag"}, wpt.Tags)
	require.Equal(t, 35.0, *wpt.Point.Elevation)

	require.Len(t, fs.Tracks, 3)
	require.Equal(t, "detour", fs.Tracks[0].Name)
	require.Len(t, fs.Tracks[0].Points, 2)
	require.Nil(t, fs.Tracks[0].Points[0].Point.Elevation)

	run := fs.Tracks[1]
	require.Equal(t, "morning run", run.Name)
	require.Len(t, run.Points, 3)
	require.Equal(t, 36.1, *run.Points[1].Point.Elevation)
	require.True(t, run.Points[1].Time.Equal(time.Date(2021, 4, 4, 8, 0, 5, 0, time.UTC)))
	require.True(t, run.Points[2].Time.IsZero())

	require.Len(t, fs.Tracks[2].Points, 1)
}

func TestLoad_GPX10(t *testing.T) {
	fs, err := Load(strings.NewReader(gpx10))
	require.NoError(t, err)

	require.Empty(t, fs.Nodes)
	require.Len(t, fs.Tracks, 1)
	require.Equal(t, "old device", fs.Tracks[0].Name)
	require.Len(t, fs.Tracks[0].Points, 2)
	require.Equal(t, 12.0, *fs.Tracks[0].Points[0].Point.Elevation)
	require.Equal(t, -1.554, fs.Tracks[0].Points[1].Point.Lon)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(strings.NewReader(`<gpx><trk>`))
	require.Error(t, err)
}
