// Package canvas draws frames onto a tdewolff canvas, used for the live view
// and for PNG rasterization.
package canvas

import (
	"image/color"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/rasterizer"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/compose"
	"github.com/akhenakh/vectormap/style"
)

// one canvas unit is one output pixel
const (
	pixelsPerUnit = 1.0
	ptPerUnit     = 72.0 / 25.4
)

// Sink a compose.Sink drawing on a canvas. Canvas y grows upward, points are
// flipped against the frame height.
type Sink struct {
	// Font used for labels, labels are skipped when nil
	Font *canvas.FontFamily

	c   *canvas.Canvas
	ctx *canvas.Context
	h   float64
}

// New returns a live Sink, font may be nil
func New(font *canvas.FontFamily) *Sink {
	return &Sink{Font: font}
}

// Canvas returns the canvas of the last frame
func (s *Sink) Canvas() *canvas.Canvas {
	return s.c
}

func (s *Sink) Begin(info compose.FrameInfo) error {
	s.h = float64(info.Height)
	s.c = canvas.New(float64(info.Width), s.h)
	s.ctx = canvas.NewContext(s.c)
	s.ctx.SetStrokeColor(canvas.Transparent)
	return nil
}

func (s *Sink) Point(p *compose.Point) error {
	at := s.flip(p.At)
	s.ctx.SetFillColor(nrgba(p.Fill, p.Opacity))
	s.ctx.DrawPath(at.X, at.Y, canvas.Circle(p.Radius))
	if p.StrokeWidth > 0 {
		s.ctx.SetFillColor(nrgba(p.Stroke, p.Opacity))
		s.ctx.DrawPath(at.X, at.Y, canvas.Circle(p.Radius).Stroke(p.StrokeWidth, canvas.RoundCap, canvas.RoundJoin))
	}
	return nil
}

func (s *Sink) Line(l *compose.Line) error {
	if len(l.Points) < 2 || l.Width <= 0 {
		return nil
	}
	s.stroke(s.path(l.Points, false), l.Color, l.Opacity, l.Width, l.Dash)
	return nil
}

func (s *Sink) Polygon(p *compose.Polygon) error {
	if len(p.Points) < 3 {
		return nil
	}
	path := s.path(p.Points, true)
	s.ctx.SetFillColor(nrgba(p.Fill, p.FillOpacity))
	s.ctx.DrawPath(0, 0, path)
	if p.StrokeWidth > 0 {
		s.stroke(path, p.Stroke, p.FillOpacity, p.StrokeWidth, p.Dash)
	}
	return nil
}

func (s *Sink) Text(t *compose.Text) error {
	if s.Font == nil || t.Text == "" {
		return nil
	}
	at := s.flip(t.Baseline())
	size := t.FontSize * ptPerUnit
	if t.HaloWidth > 0 {
		halo := s.Font.Face(size, nrgba(t.HaloColor, 1), canvas.FontRegular, canvas.FontNormal)
		for _, d := range [][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			s.ctx.DrawText(at.X+d[0]*t.HaloWidth/2, at.Y+d[1]*t.HaloWidth/2, canvas.NewTextLine(halo, t.Text, canvas.Center))
		}
	}
	face := s.Font.Face(size, nrgba(t.Color, 1), canvas.FontRegular, canvas.FontNormal)
	s.ctx.DrawText(at.X, at.Y, canvas.NewTextLine(face, t.Text, canvas.Center))
	return nil
}

func (s *Sink) End() error {
	return nil
}

func (s *Sink) stroke(path *canvas.Path, c style.Color, opacity, width float64, dash []float64) {
	if len(dash) > 0 {
		path = path.Dash(0, dash...)
	}
	s.ctx.SetFillColor(nrgba(c, opacity))
	s.ctx.DrawPath(0, 0, path.Stroke(width, canvas.RoundCap, canvas.RoundJoin))
}

func (s *Sink) path(pts []vectormap.PixelPoint, closed bool) *canvas.Path {
	p := &canvas.Path{}
	first := s.flip(pts[0])
	p.MoveTo(first.X, first.Y)
	for _, pt := range pts[1:] {
		f := s.flip(pt)
		p.LineTo(f.X, f.Y)
	}
	if closed {
		p.Close()
	}
	return p
}

func (s *Sink) flip(p vectormap.PixelPoint) vectormap.PixelPoint {
	return vectormap.PixelPoint{X: p.X, Y: s.h - p.Y}
}

func nrgba(c style.Color, opacity float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(c.Alpha(opacity) * 255)}
}

// PNGSink draws like Sink and writes a PNG image to w on End
type PNGSink struct {
	*Sink
	w io.Writer
}

// NewPNG returns a sink rasterizing the frame into w
func NewPNG(w io.Writer, font *canvas.FontFamily) *PNGSink {
	return &PNGSink{Sink: New(font), w: w}
}

// NewPNGWriter adapts NewPNG to the render.WriteFile sink factory
func NewPNGWriter(font *canvas.FontFamily) func(w io.Writer) compose.Sink {
	return func(w io.Writer) compose.Sink {
		return NewPNG(w, font)
	}
}

func (s *PNGSink) End() error {
	return rasterizer.PNGWriter(pixelsPerUnit)(s.w, s.c)
}

// LoadFont loads a system font family by name for labels
func LoadFont(name string) (*canvas.FontFamily, error) {
	family := canvas.NewFontFamily(name)
	if err := family.LoadLocalFont(name, canvas.FontRegular); err != nil {
		return nil, err
	}
	return family, nil
}
