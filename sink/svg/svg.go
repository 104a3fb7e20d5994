// Package svg writes frames as layered SVG documents editable in Inkscape.
package svg

import (
	"bufio"
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	svgo "github.com/ajstarks/svgo/float"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/compose"
	"github.com/akhenakh/vectormap/style"
)

// DefaultPrecision decimals kept on coordinates
const DefaultPrecision = 3

// Options for the svg output
type Options struct {
	// Precision decimals kept on coordinates, negative means DefaultPrecision
	Precision int
	// Timestamp written in the document description when not zero
	Timestamp time.Time
	// AntiAliasing sets shape-rendering to geometricPrecision
	AntiAliasing bool
}

// DefaultOptions returns the options used by the exporters
func DefaultOptions() Options {
	return Options{Precision: DefaultPrecision, AntiAliasing: true}
}

// Sink a compose.Sink writing svg, output is deterministic for a given frame
// and options
type Sink struct {
	opts   Options
	w      *errWriter
	canvas *svgo.SVG
	mult   float64

	layer   compose.Layer
	inLayer bool
}

// New returns a Sink writing to w
func New(w io.Writer, opts Options) *Sink {
	if opts.Precision < 0 {
		opts.Precision = DefaultPrecision
	}
	ew := &errWriter{w: bufio.NewWriter(w)}
	canvas := svgo.New(ew)
	canvas.Decimals = opts.Precision
	return &Sink{
		opts:   opts,
		w:      ew,
		canvas: canvas,
		mult:   math.Pow(10, float64(opts.Precision)),
	}
}

// NewWriter adapts New to the render.WriteFile sink factory
func NewWriter(opts Options) func(w io.Writer) compose.Sink {
	return func(w io.Writer) compose.Sink {
		return New(w, opts)
	}
}

func (s *Sink) Begin(info compose.FrameInfo) error {
	root := []string{
		`xmlns:inkscape="http://www.inkscape.org/namespaces/inkscape"`,
		`xmlns:sodipodi="http://sodipodi.sourceforge.net/DTD/sodipodi-0.dtd"`,
		attr("width", strconv.Itoa(info.Width)),
		attr("height", strconv.Itoa(info.Height)),
		attr("viewBox", "0 0 "+strconv.Itoa(info.Width)+" "+strconv.Itoa(info.Height)),
	}
	if s.opts.AntiAliasing {
		root = append(root, attr("shape-rendering", "geometricPrecision"))
	}
	root = append(root, attr("style", "background-color:"+info.Background.CSS()))

	s.canvas.Startraw(root...)
	if !s.opts.Timestamp.IsZero() {
		s.canvas.Desc("generated " + s.opts.Timestamp.UTC().Format(time.RFC3339))
	}
	s.canvas.Group(attr("id", "map"), attr("inkscape:label", "Map"), attr("inkscape:groupmode", "layer"))
	s.inLayer = false
	return s.w.err
}

func (s *Sink) Point(p *compose.Point) error {
	s.enter(p.Layer)
	a := []string{attr("fill", p.Fill.CSS())}
	a = s.opacity(a, "fill-opacity", p.Fill.Alpha(p.Opacity))
	a = s.stroke(a, p.Stroke, p.Opacity, p.StrokeWidth)
	s.canvas.Circle(p.At.X, p.At.Y, p.Radius, a...)
	return s.w.err
}

func (s *Sink) Line(l *compose.Line) error {
	s.enter(l.Layer)
	var a []string
	if l.Casing {
		a = append(a, attr("class", "casing"))
	}
	a = append(a,
		attr("fill", "none"),
		attr("stroke", l.Color.CSS()),
		attr("stroke-width", s.num(l.Width)),
	)
	a = s.opacity(a, "stroke-opacity", l.Color.Alpha(l.Opacity))
	a = append(a, attr("stroke-linecap", "round"), attr("stroke-linejoin", "round"))
	a = s.dash(a, l.Dash)
	s.canvas.Path(s.path(l.Points, false), a...)
	return s.w.err
}

func (s *Sink) Polygon(p *compose.Polygon) error {
	s.enter(p.Layer)
	a := []string{attr("fill", p.Fill.CSS())}
	a = s.opacity(a, "fill-opacity", p.Fill.Alpha(p.FillOpacity))
	a = s.stroke(a, p.Stroke, p.FillOpacity, p.StrokeWidth)
	if p.StrokeWidth > 0 {
		a = s.dash(a, p.Dash)
	}
	s.canvas.Path(s.path(p.Points, true), a...)
	return s.w.err
}

func (s *Sink) Text(t *compose.Text) error {
	s.enter(t.Layer)
	var a []string
	if t.FontFamily != "" {
		a = append(a, attr("font-family", t.FontFamily))
	}
	a = append(a, attr("font-size", s.num(t.FontSize)), attr("fill", t.Color.CSS()))
	a = s.opacity(a, "fill-opacity", t.Color.Alpha(1))
	if t.HaloWidth > 0 {
		a = append(a,
			attr("stroke", t.HaloColor.CSS()),
			attr("stroke-width", s.num(t.HaloWidth)),
		)
		a = s.opacity(a, "stroke-opacity", t.HaloColor.Alpha(1))
		a = append(a, attr("stroke-linejoin", "round"), attr("paint-order", "stroke fill"))
	}
	a = append(a, attr("text-anchor", "middle"))
	at := t.Baseline()
	s.canvas.Text(at.X, at.Y, t.Text, a...)
	return s.w.err
}

func (s *Sink) End() error {
	if s.inLayer {
		s.canvas.Gend()
		s.inLayer = false
	}
	s.canvas.Gend()
	s.canvas.End()
	if s.w.err != nil {
		return s.w.err
	}
	return s.w.w.Flush()
}

// enter opens the layer group of l when it differs from the current one
func (s *Sink) enter(l compose.Layer) {
	if s.inLayer && s.layer == l {
		return
	}
	if s.inLayer {
		s.canvas.Gend()
	}
	s.canvas.Group(attr("id", l.String()), attr("inkscape:label", l.Label()), attr("inkscape:groupmode", "layer"))
	s.layer = l
	s.inLayer = true
}

func (s *Sink) path(pts []vectormap.PixelPoint, closed bool) string {
	n := len(pts)
	if closed && n > 1 && pts[0] == pts[n-1] {
		n--
	}
	var d strings.Builder
	for i := 0; i < n; i++ {
		if i == 0 {
			d.WriteString("M")
		} else {
			d.WriteString(" L")
		}
		d.WriteString(s.num(pts[i].X) + " " + s.num(pts[i].Y))
	}
	if closed {
		d.WriteString(" Z")
	}
	return d.String()
}

// stroke appends the outline paint, opacity is the paint opacity shared
// with the fill
func (s *Sink) stroke(a []string, c style.Color, opacity, width float64) []string {
	if width <= 0 {
		return append(a, attr("stroke", "none"))
	}
	a = append(a, attr("stroke", c.CSS()), attr("stroke-width", s.num(width)))
	return s.opacity(a, "stroke-opacity", c.Alpha(opacity))
}

func (s *Sink) dash(a []string, d []float64) []string {
	if len(d) == 0 {
		return a
	}
	v := make([]string, len(d))
	for i, x := range d {
		v[i] = s.num(x)
	}
	return append(a, attr("stroke-dasharray", strings.Join(v, ",")))
}

// opacity appends name when alpha is below 1, kept to 3 decimals
func (s *Sink) opacity(a []string, name string, alpha float64) []string {
	if alpha >= 1 {
		return a
	}
	return append(a, attr(name, strconv.FormatFloat(math.Round(alpha*1000)/1000, 'f', -1, 64)))
}

func (s *Sink) num(v float64) string {
	r := math.Round(v*s.mult) / s.mult
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// attr returns name="value" with value escaped
func attr(name, value string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(`="`)
	_ = xml.EscapeText(&b, []byte(value))
	b.WriteString(`"`)
	return b.String()
}

// errWriter keeps the first write error, later writes are dropped
type errWriter struct {
	w   *bufio.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
