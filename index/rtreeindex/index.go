package rtreeindex

import (
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/akhenakh/vectormap"
)

// minimum rectangle side in degrees, rtreego refuses zero sized rectangles
const epsilon = 0.0001

// Index using an R-tree
type Index struct {
	sync.RWMutex
	tree *rtreego.Rtree
}

type indexedFeature struct {
	ref  vectormap.FeatureRef
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial
func (f *indexedFeature) Bounds() rtreego.Rect {
	return f.rect
}

func New() *Index {
	return &Index{
		tree: rtreego.NewTree(2, 25, 50),
	}
}

func (idx *Index) Add(ref vectormap.FeatureRef, b orb.Bound) {
	idx.Lock()
	defer idx.Unlock()

	idx.tree.Insert(&indexedFeature{ref: ref, rect: rect(b)})
}

// Query returns refs of features whose rectangle intersects b
func (idx *Index) Query(b orb.Bound) []vectormap.FeatureRef {
	idx.RLock()
	defer idx.RUnlock()

	spatials := idx.tree.SearchIntersect(rect(b))

	refs := make([]vectormap.FeatureRef, 0, len(spatials))
	for _, s := range spatials {
		refs = append(refs, s.(*indexedFeature).ref)
	}
	vectormap.SortRefs(refs)
	return refs
}

// Size returns the number of indexed features
func (idx *Index) Size() int {
	idx.RLock()
	defer idx.RUnlock()

	return idx.tree.Size()
}

func rect(b orb.Bound) rtreego.Rect {
	lonLength := b.Max[0] - b.Min[0]
	latLength := b.Max[1] - b.Min[1]

	// point features have a zero area
	if lonLength < epsilon {
		lonLength = epsilon
	}
	if latLength < epsilon {
		latLength = epsilon
	}

	r, _ := rtreego.NewRect(rtreego.Point{b.Min[0], b.Min[1]}, []float64{lonLength, latLength})
	return r
}
