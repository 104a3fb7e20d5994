package compose

import (
	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/style"
)

// Primitive a projected and styled drawing instruction
type Primitive interface {
	layer() Layer
	emit(s Sink) error
}

// Point a filled circle
type Point struct {
	Layer       Layer
	At          vectormap.PixelPoint
	Radius      float64
	Fill        style.Color
	Opacity     float64
	Stroke      style.Color
	StrokeWidth float64
}

// Line an open stroked polyline
type Line struct {
	Layer   Layer
	Points  []vectormap.PixelPoint
	Color   style.Color
	Width   float64
	Opacity float64
	Dash    []float64
	// Casing is true for the border drawn under a road
	Casing bool
}

// Polygon a closed ring, first point == last point
type Polygon struct {
	Layer       Layer
	Points      []vectormap.PixelPoint
	Fill        style.Color
	FillOpacity float64
	// StrokeWidth 0 means no outline
	Stroke      style.Color
	StrokeWidth float64
	Dash        []float64
}

// Text a label centered on At
type Text struct {
	Layer      Layer
	At         vectormap.PixelPoint
	Text       string
	FontFamily string
	FontSize   float64
	Color      style.Color
	HaloColor  style.Color
	HaloWidth  float64
}

// BaselineShift moves the text baseline below At, in font sizes, so the
// label sits vertically centered
const BaselineShift = 0.35

// Baseline returns where the label baseline starts, horizontally centered
func (t *Text) Baseline() vectormap.PixelPoint {
	return vectormap.PixelPoint{X: t.At.X, Y: t.At.Y + t.FontSize*BaselineShift}
}

func (p *Point) layer() Layer   { return p.Layer }
func (l *Line) layer() Layer    { return l.Layer }
func (p *Polygon) layer() Layer { return p.Layer }
func (t *Text) layer() Layer    { return t.Layer }

func (p *Point) emit(s Sink) error   { return s.Point(p) }
func (l *Line) emit(s Sink) error    { return s.Line(l) }
func (p *Polygon) emit(s Sink) error { return s.Polygon(p) }
func (t *Text) emit(s Sink) error    { return s.Text(t) }

// LayerOf returns the layer of p
func LayerOf(p Primitive) Layer {
	return p.layer()
}
