// Package compose orders styled primitives into a fixed layer sequence.
package compose

import (
	"sort"

	"github.com/akhenakh/vectormap"
)

// Compositor buckets primitives per layer, it is the only source of draw order
type Compositor struct {
	layers [layerCount][]Primitive
	roads  []road
}

type road struct {
	rank   int
	casing *Line
	fill   *Line
}

func NewCompositor() *Compositor {
	return &Compositor{}
}

// Add appends p to its layer, insertion order is kept within a layer.
// Lines added to LayerRoads go through AddRoad with the lowest rank.
func (c *Compositor) Add(p Primitive) {
	l := p.layer()
	if l >= layerCount {
		return
	}
	if line, ok := p.(*Line); ok && l == LayerRoads {
		c.AddRoad(RoadRank(""), nil, line)
		return
	}
	c.layers[l] = append(c.layers[l], p)
}

// AddRoad adds a road line and its optional casing with a hierarchy rank,
// see RoadRank
func (c *Compositor) AddRoad(rank int, casing, fill *Line) {
	if fill == nil {
		return
	}
	fill.Layer = LayerRoads
	if casing != nil {
		casing.Layer = LayerRoads
		casing.Casing = true
	}
	c.roads = append(c.roads, road{rank: rank, casing: casing, fill: fill})
}

// Len returns the number of primitives added so far
func (c *Compositor) Len() int {
	n := 0
	for _, ps := range c.layers {
		n += len(ps)
	}
	for _, r := range c.roads {
		n++
		if r.casing != nil {
			n++
		}
	}
	return n
}

// Frame returns the ordered primitives: a background rectangle then every layer
// in order. Roads are sorted minor first so major roads are drawn on top,
// and every casing is drawn before any road fill.
func (c *Compositor) Frame(info FrameInfo) *Frame {
	roads := make([]road, len(c.roads))
	copy(roads, c.roads)
	sort.SliceStable(roads, func(i, j int) bool {
		return roads[i].rank > roads[j].rank
	})

	f := &Frame{Info: info, Primitives: make([]Primitive, 0, c.Len()+1)}

	w, h := float64(info.Width), float64(info.Height)
	f.Primitives = append(f.Primitives, &Polygon{
		Layer: LayerBackground,
		Points: []vectormap.PixelPoint{
			{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}, {X: 0, Y: 0},
		},
		Fill:        info.Background,
		FillOpacity: 1,
	})

	for l := Layer(0); l < layerCount; l++ {
		if l == LayerRoads {
			for _, r := range roads {
				if r.casing != nil {
					f.Primitives = append(f.Primitives, r.casing)
				}
			}
			for _, r := range roads {
				f.Primitives = append(f.Primitives, r.fill)
			}
			continue
		}
		f.Primitives = append(f.Primitives, c.layers[l]...)
	}

	return f
}

// Frame an ordered primitive sequence ready for any Sink
type Frame struct {
	Info       FrameInfo
	Primitives []Primitive
}

// Emit feeds every primitive to s in order
func (f *Frame) Emit(s Sink) error {
	if err := s.Begin(f.Info); err != nil {
		return err
	}
	for _, p := range f.Primitives {
		if err := p.emit(s); err != nil {
			return err
		}
	}
	return s.End()
}

// Count returns the number of primitives per layer
func (f *Frame) Count() map[Layer]int {
	m := make(map[Layer]int)
	for _, p := range f.Primitives {
		m[p.layer()]++
	}
	return m
}
