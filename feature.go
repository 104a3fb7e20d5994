package vectormap

import (
	"math"
	"time"

	"github.com/paulmach/orb"
)

// GeoPoint a geographic position in degrees
type GeoPoint struct {
	Lat, Lon float64
	// Elevation in meters, nil when unknown
	Elevation *float64 `cbor:",omitempty"`
}

// Valid reports whether the point is a finite coordinate inside ±maxLat / ±180
func (p GeoPoint) Valid(maxLat float64) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -maxLat && p.Lat <= maxLat && p.Lon >= -180 && p.Lon <= 180
}

// Point returns the planar orb point (x=lon, y=lat)
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Tags key value pairs attached to a feature
type Tags map[string]string

// Node a tagged geographic point
type Node struct {
	ID    int64
	Point GeoPoint
	Tags  Tags
}

// Way an ordered list of node ids, closed when first id == last id
type Way struct {
	ID      int64
	NodeIDs []int64
	Tags    Tags
}

// Closed returns true if the way is a polygon candidate
func (w *Way) Closed() bool {
	return len(w.NodeIDs) >= 4 && w.NodeIDs[0] == w.NodeIDs[len(w.NodeIDs)-1]
}

// TrackPoint a track position, Time is zero when the log has no timestamp
type TrackPoint struct {
	Point GeoPoint
	Time  time.Time
}

// Track a GPS trace
type Track struct {
	Name   string
	Points []TrackPoint
}

// FeatureSet holds the nodes arena and the ways and tracks referencing it.
// Once built it is treated as a read only snapshot.
type FeatureSet struct {
	Nodes  []Node
	Ways   []Way
	Tracks []Track

	nodeIdx map[int64]int
	indexed int
}

// NewFeatureSet returns an empty FeatureSet
func NewFeatureSet() *FeatureSet {
	return &FeatureSet{nodeIdx: make(map[int64]int)}
}

// AddNode adds a node to the arena, replacing a node with the same id
func (fs *FeatureSet) AddNode(n Node) {
	if fs.stale() {
		fs.Reindex()
	}
	if i, ok := fs.nodeIdx[n.ID]; ok {
		fs.Nodes[i] = n
		return
	}
	fs.nodeIdx[n.ID] = len(fs.Nodes)
	fs.Nodes = append(fs.Nodes, n)
	fs.indexed = len(fs.Nodes)
}

// Reindex rebuilds the node id lookup from Nodes, the last node wins when ids
// repeat. Lookups reindex on their own when Nodes was filled directly, call it
// after changing ids in place.
func (fs *FeatureSet) Reindex() {
	fs.nodeIdx = make(map[int64]int, len(fs.Nodes))
	for i, n := range fs.Nodes {
		fs.nodeIdx[n.ID] = i
	}
	fs.indexed = len(fs.Nodes)
}

func (fs *FeatureSet) stale() bool {
	return fs.nodeIdx == nil || fs.indexed != len(fs.Nodes)
}

// AddWay appends a way
func (fs *FeatureSet) AddWay(w Way) {
	fs.Ways = append(fs.Ways, w)
}

// AddTrack appends a track
func (fs *FeatureSet) AddTrack(t Track) {
	fs.Tracks = append(fs.Tracks, t)
}

// Node returns the node for id
func (fs *FeatureSet) Node(id int64) (*Node, bool) {
	if fs.stale() {
		fs.Reindex()
	}
	i, ok := fs.nodeIdx[id]
	if !ok {
		return nil, false
	}
	return &fs.Nodes[i], true
}

// WayPoints returns the geometry of w, unresolvable node ids are ignored
func (fs *FeatureSet) WayPoints(w *Way) []GeoPoint {
	pts := make([]GeoPoint, 0, len(w.NodeIDs))
	for _, id := range w.NodeIDs {
		n, ok := fs.Node(id)
		if !ok {
			continue
		}
		pts = append(pts, n.Point)
	}
	return pts
}

// Merge appends all features of other into fs.
// Negative ids are synthesized by loaders and only unique inside their own set,
// they are renumbered below the lowest id of fs.
func (fs *FeatureSet) Merge(other *FeatureSet) {
	var low int64
	for _, n := range fs.Nodes {
		if n.ID < low {
			low = n.ID
		}
	}
	for _, w := range fs.Ways {
		if w.ID < low {
			low = w.ID
		}
	}
	remap := func(id int64) int64 {
		if id < 0 {
			return id + low
		}
		return id
	}

	for _, n := range other.Nodes {
		n.ID = remap(n.ID)
		fs.AddNode(n)
	}
	for _, w := range other.Ways {
		ids := make([]int64, len(w.NodeIDs))
		for i, id := range w.NodeIDs {
			ids[i] = remap(id)
		}
		w.ID = remap(w.ID)
		w.NodeIDs = ids
		fs.AddWay(w)
	}
	fs.Tracks = append(fs.Tracks, other.Tracks...)
}

// Bounds returns the bounding box of every valid coordinate in the set
func (fs *FeatureSet) Bounds() (orb.Bound, bool) {
	var b orb.Bound
	found := false
	extend := func(p GeoPoint) {
		if !p.Valid(MaxLatitude) {
			return
		}
		if !found {
			b = p.Point().Bound()
			found = true
			return
		}
		b = b.Extend(p.Point())
	}
	for _, n := range fs.Nodes {
		extend(n.Point)
	}
	for _, t := range fs.Tracks {
		for _, tp := range t.Points {
			extend(tp.Point)
		}
	}
	return b, found
}

// BoundOf returns the bounding box of points, ok is false when one of them is
// outside ±maxLat / ±180
func BoundOf(points []GeoPoint, maxLat float64) (orb.Bound, bool) {
	if len(points) == 0 {
		return orb.Bound{}, false
	}
	b := points[0].Point().Bound()
	for _, p := range points {
		if !p.Valid(maxLat) {
			return orb.Bound{}, false
		}
		b = b.Extend(p.Point())
	}
	return b, true
}
