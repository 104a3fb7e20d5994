package style

// Kind the feature family being resolved
type Kind uint8

const (
	KindNode Kind = iota
	KindWay
)

// poiCategories classifying tags for points of interest, in priority order
var poiCategories = []string{
	"amenity",
	"shop",
	"tourism",
	"leisure",
	"office",
	"healthcare",
	"public_transport",
	"place",
}

// wayCategories classifying tags for ways, in priority order
var wayCategories = []string{
	"highway",
	"railway",
	"waterway",
	"natural",
	"landuse",
	"leisure",
	"aeroway",
	"boundary",
	"building",
}

// MinimalWayPaint is used for ways when the table has no default entry
var MinimalWayPaint = Paint{
	Mode:  ModeLine,
	Color: RGB(0xe0, 0xe0, 0xe0),
	Width: 1,
}

// CategoryKey returns the category key of a point of interest:
// the value itself for amenity, "<category>_<value>" otherwise
func CategoryKey(tags map[string]string) (string, bool) {
	for _, cat := range poiCategories {
		v, ok := tags[cat]
		if !ok || v == "" {
			continue
		}
		if cat == "amenity" {
			return v, true
		}
		return cat + "_" + v, true
	}
	return "", false
}

// WayCategoryKey returns the category key of a way: "<category>_<value>",
// or "building" for any building
func WayCategoryKey(tags map[string]string) (string, bool) {
	for _, cat := range wayCategories {
		v, ok := tags[cat]
		if !ok || v == "" || v == "no" {
			continue
		}
		if cat == "building" {
			return "building", true
		}
		return cat + "_" + v, true
	}
	return "", false
}

// Resolve returns the paint for a feature: the first rule fully matching tags
// with zoom in range, else the category table entry, else the table default.
// Nodes without a rule match nor a classifying tag are not drawn,
// ways always get at least a default paint.
func Resolve(tags map[string]string, kind Kind, set *Set, zoom float64) (Resolved, bool) {
	for i := range set.Rules {
		r := &set.Rules[i]
		if r.Matches(tags) && r.InZoom(zoom) {
			p := r.Paint
			if p.LabelMinZoom < r.MinZoom {
				p.LabelMinZoom = r.MinZoom
			}
			return Resolved{Paint: p, Source: "rule:" + r.Name}, true
		}
	}

	switch kind {
	case KindNode:
		key, ok := CategoryKey(tags)
		if !ok {
			return Resolved{}, false
		}
		return fromTable(set.POIs, key)
	default:
		key, ok := WayCategoryKey(tags)
		if ok {
			if p, found := set.Ways[key]; found {
				return Resolved{Paint: p, Source: "category:" + key}, true
			}
		}
		if p, found := set.Ways[DefaultKey]; found {
			return Resolved{Paint: p, Source: DefaultKey}, true
		}
		return Resolved{Paint: MinimalWayPaint, Source: DefaultKey}, true
	}
}

func fromTable(table CategoryTable, key string) (Resolved, bool) {
	if p, found := table[key]; found {
		return Resolved{Paint: p, Source: "category:" + key}, true
	}
	if p, found := table[DefaultKey]; found {
		return Resolved{Paint: p, Source: DefaultKey}, true
	}
	return Resolved{}, false
}

// Alpha returns the opacity to paint with, unset means opaque
func (p Paint) Alpha() float64 {
	if p.Opacity <= 0 || p.Opacity > 1 {
		return 1
	}
	return p.Opacity
}

// Fill returns the fill color, falling back to Color
func (p Paint) Fill() Color {
	if p.FillColor.IsZero() {
		return p.Color
	}
	return p.FillColor
}
