package scanindex

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/akhenakh/vectormap"
)

// Index performs a linear scan, useful for small datasets and as a reference
type Index struct {
	sync.RWMutex
	entries []entry
}

type entry struct {
	ref vectormap.FeatureRef
	b   orb.Bound
}

func New() *Index {
	return &Index{}
}

func (idx *Index) Add(ref vectormap.FeatureRef, b orb.Bound) {
	idx.Lock()
	defer idx.Unlock()

	idx.entries = append(idx.entries, entry{ref: ref, b: b})
}

// Query returns refs of features whose bounding box intersects b
func (idx *Index) Query(b orb.Bound) []vectormap.FeatureRef {
	idx.RLock()
	defer idx.RUnlock()

	var refs []vectormap.FeatureRef
	for _, e := range idx.entries {
		if e.b.Intersects(b) {
			refs = append(refs, e.ref)
		}
	}
	vectormap.SortRefs(refs)
	return refs
}
