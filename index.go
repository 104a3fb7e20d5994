package vectormap

import (
	"sort"

	"github.com/paulmach/orb"
)

// Culler offers different strategy indexers to speed up viewport queries
type Culler interface {
	// Add indexes a feature under its bounding box
	Add(ref FeatureRef, b orb.Bound)

	// Query returns refs of features whose bounding box may intersect b,
	// false positives are allowed, false negatives are not
	Query(b orb.Bound) []FeatureRef
}

// FeatureKind the kind of a feature in a FeatureSet
type FeatureKind uint8

const (
	KindWay FeatureKind = iota
	KindTrack
	KindNode
)

func (k FeatureKind) String() string {
	switch k {
	case KindWay:
		return "way"
	case KindTrack:
		return "track"
	case KindNode:
		return "node"
	default:
		return "unknown"
	}
}

// FeatureRef a reference to find back a feature from a FeatureSet
type FeatureRef struct {
	Kind FeatureKind
	// Pos is the position of the feature in its FeatureSet slice
	Pos int
}

// SortRefs sorts refs by kind then insertion position
func SortRefs(refs []FeatureRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Kind != refs[j].Kind {
			return refs[i].Kind < refs[j].Kind
		}
		return refs[i].Pos < refs[j].Pos
	})
}
