// Package geojson loads GeoJSON feature collections into a FeatureSet.
package geojson

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/akhenakh/vectormap"
)

// loader synthesizes node ids, counting down from -1 so they never clash with osm ids
type loader struct {
	fs     *vectormap.FeatureSet
	nextID int64
}

// Load reads a FeatureCollection. Points become nodes, polygon outer rings
// closed ways, lines ways or tracks when the feature is tagged type=track or
// carries coordTimes.
func Load(r io.Reader) (*vectormap.FeatureSet, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, errors.Wrap(err, "can't decode geojson")
	}

	l := &loader{fs: vectormap.NewFeatureSet(), nextID: -1}
	for i, f := range fc.Features {
		if err := l.add(f); err != nil {
			return nil, errors.Wrapf(err, "feature #%d", i)
		}
	}

	return l.fs, nil
}

func (l *loader) add(f *geojson.Feature) error {
	if f.Geometry == nil {
		return nil
	}
	tags := Tags(f.Properties)
	id := l.featureID(f)

	switch g := f.Geometry.(type) {
	case *geom.Point:
		l.fs.AddNode(vectormap.Node{ID: id, Point: point(g.FlatCoords(), g.Stride(), g.Layout()), Tags: tags})

	case *geom.MultiPoint:
		for i := 0; i < g.NumPoints(); i++ {
			p := g.Point(i)
			l.fs.AddNode(vectormap.Node{ID: l.id(), Point: point(p.FlatCoords(), p.Stride(), p.Layout()), Tags: tags})
		}

	case *geom.LineString:
		if isTrack(f.Properties) {
			l.track(f.Properties, g.FlatCoords(), g.Stride(), g.Layout(), 0)
			return nil
		}
		l.way(id, tags, g.FlatCoords(), g.Stride(), g.Layout(), false)

	case *geom.MultiLineString:
		for i := 0; i < g.NumLineStrings(); i++ {
			ls := g.LineString(i)
			if isTrack(f.Properties) {
				l.track(f.Properties, ls.FlatCoords(), ls.Stride(), ls.Layout(), i)
				continue
			}
			l.way(l.id(), tags, ls.FlatCoords(), ls.Stride(), ls.Layout(), false)
		}

	case *geom.Polygon:
		// only supports outer ring
		if g.NumLinearRings() > 0 {
			r := g.LinearRing(0)
			l.way(id, tags, r.FlatCoords(), r.Stride(), r.Layout(), true)
		}

	case *geom.MultiPolygon:
		for i := 0; i < g.NumPolygons(); i++ {
			p := g.Polygon(i)
			if p.NumLinearRings() == 0 {
				continue
			}
			r := p.LinearRing(0)
			l.way(l.id(), tags, r.FlatCoords(), r.Stride(), r.Layout(), true)
		}

	default:
		return errors.Errorf("unsupported geometry type %T", g)
	}

	return nil
}

func (l *loader) id() int64 {
	id := l.nextID
	l.nextID--
	return id
}

// featureID uses an osm_id or id numeric property when present
func (l *loader) featureID(f *geojson.Feature) int64 {
	for _, k := range []string{"osm_id", "id"} {
		if v, ok := f.Properties[k].(float64); ok {
			return int64(v)
		}
	}
	if id, err := strconv.ParseInt(f.ID, 10, 64); err == nil {
		return id
	}
	return l.id()
}

func (l *loader) way(id int64, tags vectormap.Tags, flat []float64, stride int, layout geom.Layout, ring bool) {
	n := len(flat) / stride
	if ring && n > 1 && sameXY(flat, 0, (n-1)*stride) {
		n--
	}
	if n < 2 {
		return
	}

	ids := make([]int64, 0, n+1)
	for i := 0; i < n; i++ {
		nid := l.id()
		l.fs.AddNode(vectormap.Node{ID: nid, Point: point(flat[i*stride:], stride, layout)})
		ids = append(ids, nid)
	}
	if ring {
		ids = append(ids, ids[0])
	}

	l.fs.AddWay(vectormap.Way{ID: id, NodeIDs: ids, Tags: tags})
}

func (l *loader) track(props map[string]interface{}, flat []float64, stride int, layout geom.Layout, part int) {
	times := coordTimes(props, part)
	n := len(flat) / stride

	t := vectormap.Track{Points: make([]vectormap.TrackPoint, n)}
	if name, ok := props["name"].(string); ok {
		t.Name = name
	}
	for i := 0; i < n; i++ {
		t.Points[i].Point = point(flat[i*stride:], stride, layout)
		if i < len(times) {
			t.Points[i].Time = times[i]
		}
	}

	l.fs.AddTrack(t)
}

func point(flat []float64, stride int, layout geom.Layout) vectormap.GeoPoint {
	p := vectormap.GeoPoint{Lon: flat[0], Lat: flat[1]}
	if z := layout.ZIndex(); z >= 0 && z < stride {
		ele := flat[z]
		p.Elevation = &ele
	}
	return p
}

func sameXY(flat []float64, i, j int) bool {
	return flat[i] == flat[j] && flat[i+1] == flat[j+1]
}

func isTrack(props map[string]interface{}) bool {
	if t, ok := props["type"].(string); ok && t == "track" {
		return true
	}
	_, ok := props["coordTimes"]
	return ok
}

// coordTimes reads the per coordinate timestamps, a list of lists for multi lines
func coordTimes(props map[string]interface{}, part int) []time.Time {
	raw, ok := props["coordTimes"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	if nested, ok := raw[0].([]interface{}); ok {
		if part >= len(raw) {
			return nil
		}
		if nested, ok = raw[part].([]interface{}); !ok {
			return nil
		}
		raw = nested
	}

	times := make([]time.Time, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			times[i] = t
		}
	}
	return times
}

// Tags converts GeoJSON properties to tags, scalar values only
func Tags(props map[string]interface{}) vectormap.Tags {
	tags := make(vectormap.Tags)
	for k, v := range props {
		switch tv := v.(type) {
		case string:
			tags[k] = tv
		case float64:
			tags[k] = strconv.FormatFloat(tv, 'f', -1, 64)
		case bool:
			tags[k] = strconv.FormatBool(tv)
		case map[string]interface{}:
			// osmtogeojson style nested tags
			if k == "tags" {
				for tk, val := range tv {
					tags[tk] = fmt.Sprint(val)
				}
			}
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
