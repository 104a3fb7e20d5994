// Package style resolves feature tags into drawing parameters.
package style

import (
	"fmt"
	"strings"
)

// DrawMode how a feature geometry is painted
type DrawMode uint8

const (
	ModeLine DrawMode = iota
	ModePoint
	ModeFill
	// ModeBoth fills and strokes
	ModeBoth
)

func (m DrawMode) String() string {
	switch m {
	case ModePoint:
		return "point"
	case ModeFill:
		return "fill"
	case ModeBoth:
		return "both"
	default:
		return "line"
	}
}

func (m DrawMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *DrawMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "line", "":
		*m = ModeLine
	case "point":
		*m = ModePoint
	case "fill":
		*m = ModeFill
	case "both":
		*m = ModeBoth
	default:
		return fmt.Errorf("unknown draw mode %q", b)
	}
	return nil
}

// Fills returns true if closed geometries are filled
func (m DrawMode) Fills() bool {
	return m == ModeFill || m == ModeBoth
}

// Strokes returns true if geometries outlines are drawn
func (m DrawMode) Strokes() bool {
	return m == ModeLine || m == ModeBoth
}

// Selector matches one tag, an empty Value matches any value of Key
type Selector struct {
	Key   string
	Value string
}

// ParseSelector reads key or key=value
func ParseSelector(s string) (Selector, error) {
	k, v := s, ""
	if i := strings.IndexByte(s, '='); i >= 0 {
		k, v = s[:i], s[i+1:]
	}
	k = strings.TrimSpace(k)
	if k == "" {
		return Selector{}, fmt.Errorf("invalid selector %q: empty key", s)
	}
	return Selector{Key: k, Value: strings.TrimSpace(v)}, nil
}

func (s Selector) String() string {
	if s.Value == "" {
		return s.Key
	}
	return s.Key + "=" + s.Value
}

func (s Selector) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Selector) UnmarshalText(b []byte) error {
	ps, err := ParseSelector(string(b))
	if err != nil {
		return err
	}
	*s = ps
	return nil
}

// Matches reports whether tags satisfy the selector
func (s Selector) Matches(tags map[string]string) bool {
	v, ok := tags[s.Key]
	if !ok {
		return false
	}
	return s.Value == "" || s.Value == v
}

// Paint concrete drawing parameters
type Paint struct {
	Mode DrawMode `json:"mode"`
	// Color strokes lines and fills points
	Color     Color   `json:"color"`
	FillColor Color   `json:"fill_color,omitempty"`
	Width     float64 `json:"width,omitempty"`

	// Border is drawn under the line, BorderWidth on each side
	BorderColor Color     `json:"border_color,omitempty"`
	BorderWidth float64   `json:"border_width,omitempty"`
	Radius      float64   `json:"radius,omitempty"`
	Opacity     float64   `json:"opacity,omitempty"`
	Dash        []float64 `json:"dash,omitempty"`

	// TextField names the tag used as label, no label when empty
	TextField    string  `json:"text_field,omitempty"`
	FontSize     float64 `json:"font_size,omitempty"`
	LabelMinZoom float64 `json:"label_min_zoom,omitempty"`
}

// Rule applies its Paint when every selector matches and the zoom is in range
type Rule struct {
	Name      string     `json:"name"`
	Selectors []Selector `json:"selectors"`
	Paint
	MinZoom float64 `json:"min_zoom,omitempty"`
	// MaxZoom 0 means no upper bound
	MaxZoom float64 `json:"max_zoom,omitempty"`
}

// Matches reports whether every selector matches tags, a rule without
// selectors never matches
func (r *Rule) Matches(tags map[string]string) bool {
	if len(r.Selectors) == 0 {
		return false
	}
	for _, s := range r.Selectors {
		if !s.Matches(tags) {
			return false
		}
	}
	return true
}

// InZoom reports whether zoom is inside [MinZoom, MaxZoom]
func (r *Rule) InZoom(zoom float64) bool {
	if zoom < r.MinZoom {
		return false
	}
	return r.MaxZoom == 0 || zoom <= r.MaxZoom
}

// CategoryTable fallback paints by category key, with a "default" entry
type CategoryTable map[string]Paint

// DefaultKey the table wide fallback entry
const DefaultKey = "default"

// LabelStyle text rendering parameters
type LabelStyle struct {
	FontFamily    string  `json:"font_family"`
	Color         Color   `json:"color"`
	HaloColor     Color   `json:"halo_color"`
	HaloWidth     float64 `json:"halo_width"`
	RoadFontSize  float64 `json:"road_font_size"`
	PlaceFontSize float64 `json:"place_font_size"`
	POIFontSize   float64 `json:"poi_font_size"`
}

// Set a complete style: ordered rules, category tables and frame level parameters.
// A Set is never mutated by resolution.
type Set struct {
	Name       string        `json:"name"`
	Background Color         `json:"background"`
	Rules      []Rule        `json:"rules"`
	POIs       CategoryTable `json:"pois"`
	Ways       CategoryTable `json:"ways"`
	Track      Paint         `json:"track"`
	Labels     LabelStyle    `json:"labels"`
}

// Resolved a Paint attached to a feature and where it came from
type Resolved struct {
	Paint
	// Source is "rule:<name>", "category:<key>" or "default"
	Source string
}
