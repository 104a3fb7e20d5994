package render

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/index/rtreeindex"
	"github.com/akhenakh/vectormap/index/s2index"
	"github.com/akhenakh/vectormap/index/scanindex"
)

// Scene a FeatureSet snapshot with its culling index and precomputed geometries.
// A Scene is read only once built and can be shared by concurrent renders.
type Scene struct {
	Features *vectormap.FeatureSet
	Strategy string

	culler vectormap.Culler

	wayPoints   [][]vectormap.GeoPoint
	wayBounds   []orb.Bound
	trackPoints [][]vectormap.GeoPoint
	trackBounds []orb.Bound
	nodeBounds  []orb.Bound

	extent orb.Bound
	count  int

	// Skipped counts invalid features left out of the index
	Skipped int
}

// NewCuller returns an empty culler for strategy
func NewCuller(strategy string) (vectormap.Culler, error) {
	switch strategy {
	case vectormap.RTreeStrategy:
		return rtreeindex.New(), nil
	case vectormap.S2Strategy:
		return s2index.New(s2index.DefaultOptions), nil
	case vectormap.ScanStrategy:
		return scanindex.New(), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", strategy)
}

// NewScene indexes fs. Ways with fewer than 2 resolvable nodes, untagged nodes
// and any feature with out of range coordinates are left out.
func NewScene(fs *vectormap.FeatureSet, strategy string) (*Scene, error) {
	culler, err := NewCuller(strategy)
	if err != nil {
		return nil, err
	}

	s := &Scene{
		Features:    fs,
		Strategy:    strategy,
		culler:      culler,
		wayPoints:   make([][]vectormap.GeoPoint, len(fs.Ways)),
		wayBounds:   make([]orb.Bound, len(fs.Ways)),
		trackPoints: make([][]vectormap.GeoPoint, len(fs.Tracks)),
		trackBounds: make([]orb.Bound, len(fs.Tracks)),
		nodeBounds:  make([]orb.Bound, len(fs.Nodes)),
	}

	for i := range fs.Ways {
		pts := fs.WayPoints(&fs.Ways[i])
		if len(pts) < 2 {
			s.Skipped++
			continue
		}
		b, ok := vectormap.BoundOf(pts, vectormap.MaxLatitude)
		if !ok {
			s.Skipped++
			continue
		}
		s.wayPoints[i] = pts
		s.wayBounds[i] = b
		s.add(vectormap.FeatureRef{Kind: vectormap.KindWay, Pos: i}, b)
	}

	for i, t := range fs.Tracks {
		pts := make([]vectormap.GeoPoint, 0, len(t.Points))
		for _, tp := range t.Points {
			if tp.Point.Valid(vectormap.MaxLatitude) {
				pts = append(pts, tp.Point)
			}
		}
		if len(pts) < 2 {
			s.Skipped++
			continue
		}
		b, _ := vectormap.BoundOf(pts, vectormap.MaxLatitude)
		s.trackPoints[i] = pts
		s.trackBounds[i] = b
		s.add(vectormap.FeatureRef{Kind: vectormap.KindTrack, Pos: i}, b)
	}

	for i, n := range fs.Nodes {
		if len(n.Tags) == 0 {
			continue
		}
		if !n.Point.Valid(vectormap.MaxLatitude) {
			s.Skipped++
			continue
		}
		b := n.Point.Point().Bound()
		s.nodeBounds[i] = b
		s.add(vectormap.FeatureRef{Kind: vectormap.KindNode, Pos: i}, b)
	}

	return s, nil
}

// Cull returns refs of features whose bounding box intersects b, in kind then
// insertion order
func (s *Scene) Cull(b orb.Bound) []vectormap.FeatureRef {
	candidates := s.culler.Query(b)

	refs := candidates[:0]
	for _, ref := range candidates {
		if s.bound(ref).Intersects(b) {
			refs = append(refs, ref)
		}
	}
	return refs
}

func (s *Scene) bound(ref vectormap.FeatureRef) orb.Bound {
	switch ref.Kind {
	case vectormap.KindWay:
		return s.wayBounds[ref.Pos]
	case vectormap.KindTrack:
		return s.trackBounds[ref.Pos]
	default:
		return s.nodeBounds[ref.Pos]
	}
}

// Geometry returns the indexed points of a ref returned by Cull
func (s *Scene) Geometry(ref vectormap.FeatureRef) []vectormap.GeoPoint {
	switch ref.Kind {
	case vectormap.KindWay:
		return s.wayPoints[ref.Pos]
	case vectormap.KindTrack:
		return s.trackPoints[ref.Pos]
	default:
		return []vectormap.GeoPoint{s.Features.Nodes[ref.Pos].Point}
	}
}

// Bounds returns the extent of every indexed feature
func (s *Scene) Bounds() (orb.Bound, bool) {
	return s.extent, s.count > 0
}

// Len returns the number of indexed features
func (s *Scene) Len() int {
	return s.count
}

func (s *Scene) add(ref vectormap.FeatureRef, b orb.Bound) {
	s.culler.Add(ref, b)
	if s.count == 0 {
		s.extent = b
	} else {
		s.extent = s.extent.Union(b)
	}
	s.count++
}
