package s2index

import (
	"math"
	"sort"
	"sync"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"

	"github.com/akhenakh/vectormap"
)

// Index using s2 cells covering features bounding boxes
type Index struct {
	sync.Mutex

	cells  map[s2.CellID][]vectormap.FeatureRef
	sorted []s2.CellID
	dirty  bool

	coverer  *s2.RegionCoverer
	qcoverer *s2.RegionCoverer
	minLevel int
}

// Options for the s2 Index
type Options struct {
	MinLevel int
	MaxLevel int
	// MaxCells per feature cover
	MaxCells int
}

// DefaultOptions suits city to country sized datasets
var DefaultOptions = Options{
	MinLevel: 4,
	MaxLevel: 16,
	MaxCells: 8,
}

func New(opts Options) *Index {
	return &Index{
		cells: make(map[s2.CellID][]vectormap.FeatureRef),
		coverer: &s2.RegionCoverer{
			MinLevel: opts.MinLevel,
			MaxLevel: opts.MaxLevel,
			MaxCells: opts.MaxCells,
		},
		qcoverer: &s2.RegionCoverer{
			MinLevel: opts.MinLevel,
			MaxLevel: opts.MaxLevel,
			MaxCells: opts.MaxCells * 2,
		},
		minLevel: opts.MinLevel,
	}
}

func (idx *Index) Add(ref vectormap.FeatureRef, b orb.Bound) {
	cu := idx.coverer.Covering(rect(b))

	idx.Lock()
	defer idx.Unlock()

	for _, c := range cu {
		if _, ok := idx.cells[c]; !ok {
			idx.dirty = true
		}
		idx.cells[c] = append(idx.cells[c], ref)
	}
}

// Query returns refs of features having a cell intersecting the cover of b,
// s2 cells either contain each other or are disjoint so parents and
// children of every query cell are looked up
func (idx *Index) Query(b orb.Bound) []vectormap.FeatureRef {
	cu := idx.qcoverer.Covering(rect(b))

	idx.Lock()
	defer idx.Unlock()

	if idx.dirty {
		idx.sorted = idx.sorted[:0]
		for c := range idx.cells {
			idx.sorted = append(idx.sorted, c)
		}
		sort.Slice(idx.sorted, func(i, j int) bool { return idx.sorted[i] < idx.sorted[j] })
		idx.dirty = false
	}

	seen := make(map[vectormap.FeatureRef]struct{})
	add := func(c s2.CellID) {
		for _, ref := range idx.cells[c] {
			seen[ref] = struct{}{}
		}
	}

	for _, c := range cu {
		// ancestors, including c itself
		for l := c.Level(); l >= idx.minLevel && l >= 0; l-- {
			add(c.Parent(l))
		}

		// descendants
		lo, hi := c.RangeMin(), c.RangeMax()
		i := sort.Search(len(idx.sorted), func(i int) bool { return idx.sorted[i] >= lo })
		for ; i < len(idx.sorted) && idx.sorted[i] <= hi; i++ {
			if idx.sorted[i] != c {
				add(idx.sorted[i])
			}
		}
	}

	refs := make([]vectormap.FeatureRef, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	vectormap.SortRefs(refs)
	return refs
}

// CellCount returns the number of distinct indexed cells
func (idx *Index) CellCount() int {
	idx.Lock()
	defer idx.Unlock()

	return len(idx.cells)
}

// rect converts b to an s2.Rect, b never crosses the antimeridian so the
// longitude interval is taken from the endpoints and may span more than 180°
func rect(b orb.Bound) s2.Rect {
	lng := s1.FullInterval()
	if b.Max[0]-b.Min[0] < 360 {
		lng = s1.IntervalFromEndpoints(radians(clamp(b.Min[0], 180)), radians(clamp(b.Max[0], 180)))
	}
	return s2.Rect{
		Lat: r1.Interval{Lo: radians(clamp(b.Min[1], 90)), Hi: radians(clamp(b.Max[1], 90))},
		Lng: lng,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func clamp(v, max float64) float64 {
	return math.Max(-max, math.Min(max, v))
}
