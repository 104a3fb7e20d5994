// Package gpx loads GPS exchange files: tracks and routes become Tracks,
// waypoints tagged nodes.
package gpx

import (
	"io"
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"github.com/tkrajina/gpxgo/gpx"

	"github.com/akhenakh/vectormap"
)

// WaypointTag tag set on nodes created from waypoints, value "waypoint"
const WaypointTag = "gpx"

// Load decodes a GPX 1.0 or 1.1 document, each track segment becomes its own Track
func Load(r io.Reader) (*vectormap.FeatureSet, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "can't read gpx")
	}

	doc, err := gpx.ParseBytes(b)
	if err != nil {
		return nil, errors.Wrap(err, "can't decode gpx")
	}

	fs := vectormap.NewFeatureSet()

	for i, w := range doc.Waypoints {
		tags := vectormap.Tags{WaypointTag: "waypoint"}
		if name := strings.TrimSpace(w.Name); name != "" {
			tags["name"] = name
		}
		if w.Symbol != "" {
			tags["sym"] = w.Symbol
		}
		if w.Type != "" {
			tags["type"] = w.Type
		}
		fs.AddNode(vectormap.Node{ID: -int64(i + 1), Point: geoPoint(w), Tags: tags})
	}

	for _, rte := range doc.Routes {
		fs.AddTrack(vectormap.Track{Name: strings.TrimSpace(rte.Name), Points: trackPoints(rte.Points)})
	}

	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			if len(seg.Points) == 0 {
				continue
			}
			fs.AddTrack(vectormap.Track{Name: strings.TrimSpace(trk.Name), Points: trackPoints(seg.Points)})
		}
	}

	return fs, nil
}

func trackPoints(pts []gpx.GPXPoint) []vectormap.TrackPoint {
	out := make([]vectormap.TrackPoint, len(pts))
	for i, p := range pts {
		out[i] = vectormap.TrackPoint{Point: geoPoint(p), Time: p.Timestamp}
	}
	return out
}

func geoPoint(p gpx.GPXPoint) vectormap.GeoPoint {
	gp := vectormap.GeoPoint{Lat: p.Latitude, Lon: p.Longitude}
	if p.Elevation.NotNull() {
		ele := p.Elevation.Value()
		gp.Elevation = &ele
	}
	return gp
}
