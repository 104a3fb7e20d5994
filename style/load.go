package style

import (
	"encoding/json"
	"fmt"
	"io"
)

// LoadJSON reads a style set, sections left out are taken from Default
func LoadJSON(r io.Reader) (*Set, error) {
	set := &Set{}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(set); err != nil {
		return nil, fmt.Errorf("can't decode style set: %w", err)
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}

	set.fillDefaults(Default())

	return set, nil
}

// Validate checks rules are usable
func (s *Set) Validate() error {
	for i, r := range s.Rules {
		if len(r.Selectors) == 0 {
			return fmt.Errorf("rule #%d %q has no selector", i, r.Name)
		}
		if r.MaxZoom != 0 && r.MaxZoom < r.MinZoom {
			return fmt.Errorf("rule #%d %q has max_zoom %g < min_zoom %g", i, r.Name, r.MaxZoom, r.MinZoom)
		}
		for _, sel := range r.Selectors {
			if sel.Key == "" {
				return fmt.Errorf("rule #%d %q has an empty selector", i, r.Name)
			}
		}
	}
	return nil
}

func (s *Set) fillDefaults(d *Set) {
	if s.Name == "" {
		s.Name = d.Name
	}
	if s.Background.IsZero() {
		s.Background = d.Background
	}
	s.POIs = mergeTable(s.POIs, d.POIs)
	s.Ways = mergeTable(s.Ways, d.Ways)
	if s.Track.Color.IsZero() {
		s.Track = d.Track
	}

	l := &s.Labels
	if l.FontFamily == "" {
		l.FontFamily = d.Labels.FontFamily
	}
	if l.Color.IsZero() {
		l.Color = d.Labels.Color
	}
	if l.HaloColor.IsZero() {
		l.HaloColor = d.Labels.HaloColor
	}
	if l.HaloWidth == 0 {
		l.HaloWidth = d.Labels.HaloWidth
	}
	if l.RoadFontSize == 0 {
		l.RoadFontSize = d.Labels.RoadFontSize
	}
	if l.PlaceFontSize == 0 {
		l.PlaceFontSize = d.Labels.PlaceFontSize
	}
	if l.POIFontSize == 0 {
		l.POIFontSize = d.Labels.POIFontSize
	}
}

// mergeTable a nil table is replaced entirely, otherwise only the default entry is ensured
func mergeTable(t, d CategoryTable) CategoryTable {
	if t == nil {
		return d
	}
	if _, ok := t[DefaultKey]; !ok {
		t[DefaultKey] = d[DefaultKey]
	}
	return t
}
