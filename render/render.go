// Package render runs the frame pipeline: cull, project, simplify, resolve styles,
// compose layers and emit to a sink.
package render

import (
	"fmt"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/compose"
	"github.com/akhenakh/vectormap/simplify"
	"github.com/akhenakh/vectormap/style"
)

const (
	// DefaultCullMargin extra pixels queried around the viewport
	DefaultCullMargin = 16.0

	// DefaultLabelScale POI labels are shown from this scale in pixels per degree
	DefaultLabelScale = 40000.0

	// minSpan below this pixel extent a geometry is not drawn
	minSpan = 1e-6

	poiLabelGap = 2.0
)

// Options tune the pipeline
type Options struct {
	PixelTolerance float64
	CullMargin     float64
	LabelScale     float64
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		PixelTolerance: simplify.DefaultPixelTolerance,
		CullMargin:     DefaultCullMargin,
		LabelScale:     DefaultLabelScale,
	}
}

// Stats counts what happened during one frame
type Stats struct {
	Culled     int
	Simplified int
	Degenerate int
	Unstyled   int
	Labels     int
}

// Renderer turns a scene into frames, it holds no per frame state
// and is safe for concurrent use.
type Renderer struct {
	opts   Options
	logger log.Logger
}

// NewRenderer returns a Renderer, unset PixelTolerance and LabelScale take their defaults
func NewRenderer(logger log.Logger, opts Options) *Renderer {
	d := DefaultOptions()
	if opts.PixelTolerance <= 0 {
		opts.PixelTolerance = d.PixelTolerance
	}
	if opts.CullMargin < 0 {
		opts.CullMargin = d.CullMargin
	}
	if opts.LabelScale <= 0 {
		opts.LabelScale = d.LabelScale
	}
	return &Renderer{
		opts:   opts,
		logger: log.With(logger, "component", "renderer"),
	}
}

// Options returns the effective options
func (r *Renderer) Options() Options {
	return r.opts
}

// Render computes the frame for vp and emits it to sink.
// The only error returned comes from the sink and is an *ExportError.
func (r *Renderer) Render(scene *Scene, set *style.Set, vp vectormap.Viewport, sink compose.Sink) error {
	f := r.Frame(scene, set, vp)
	if err := f.Emit(sink); err != nil {
		return &ExportError{Op: "draw", Err: err}
	}
	return nil
}

// Frame computes the ordered primitives for vp. It never fails:
// features with unusable geometry are skipped.
func (r *Renderer) Frame(scene *Scene, set *style.Set, vp vectormap.Viewport) *compose.Frame {
	f, stats := r.frame(scene, set, vp)
	level.Debug(r.logger).Log(
		"msg", "frame",
		"culled", stats.Culled,
		"simplified", stats.Simplified,
		"degenerate", stats.Degenerate,
		"labels", stats.Labels,
		"primitives", len(f.Primitives),
	)
	return f
}

func (r *Renderer) frame(scene *Scene, set *style.Set, vp vectormap.Viewport) (*compose.Frame, Stats) {
	var stats Stats
	p := &pass{
		opts: r.opts,
		set:  set,
		vp:   vp,
		zoom: vp.Zoom(),
		comp: compose.NewCompositor(),
	}

	refs := scene.Cull(vp.VisibleBounds(r.opts.CullMargin))
	stats.Culled = len(refs)

	for _, ref := range refs {
		switch ref.Kind {
		case vectormap.KindWay:
			p.way(&scene.Features.Ways[ref.Pos], scene.wayPoints[ref.Pos], &stats)
		case vectormap.KindTrack:
			p.track(scene.trackPoints[ref.Pos], &stats)
		case vectormap.KindNode:
			p.node(&scene.Features.Nodes[ref.Pos], &stats)
		}
	}

	return p.comp.Frame(compose.FrameInfo{
		Width:      vp.Width,
		Height:     vp.Height,
		Background: set.Background,
		Scale:      vp.Scale,
		Zoom:       p.zoom,
	}), stats
}

// pass holds the state of one frame computation
type pass struct {
	opts Options
	set  *style.Set
	vp   vectormap.Viewport
	zoom float64
	comp *compose.Compositor
}

func (p *pass) project(pts []vectormap.GeoPoint, stats *Stats) []vectormap.PixelPoint {
	px := p.vp.ProjectAll(pts)
	out := simplify.DouglasPeucker(px, p.opts.PixelTolerance)
	stats.Simplified += len(px) - len(out)
	return out
}

func (p *pass) way(w *vectormap.Way, geo []vectormap.GeoPoint, stats *Stats) {
	res, _ := style.Resolve(w.Tags, style.KindWay, p.set, p.zoom)
	pts := p.project(geo, stats)
	if simplify.Degenerate(pts, minSpan) {
		stats.Degenerate++
		return
	}

	layer := compose.ClassifyWay(w.Tags)
	closed := w.Closed() && simplify.Closed(pts)

	if closed && res.Mode.Fills() {
		if len(pts) < 4 {
			stats.Degenerate++
			return
		}
		poly := &compose.Polygon{
			Layer:       layer,
			Points:      pts,
			Fill:        res.Fill(),
			FillOpacity: res.Alpha(),
			Dash:        res.Dash,
		}
		if res.Mode.Strokes() {
			poly.Stroke = res.Color
			poly.StrokeWidth = res.Width
		}
		p.comp.Add(poly)
		p.areaLabel(w.Tags, res, pts, stats)
		return
	}

	line := &compose.Line{
		Layer:   layer,
		Points:  pts,
		Color:   res.Color,
		Width:   res.Width,
		Opacity: res.Alpha(),
		Dash:    res.Dash,
	}

	if layer == compose.LayerRoads {
		var casing *compose.Line
		if res.BorderWidth > 0 && !res.BorderColor.IsZero() {
			casing = &compose.Line{
				Points:  pts,
				Color:   res.BorderColor,
				Width:   res.Width + 2*res.BorderWidth,
				Opacity: res.Alpha(),
			}
		}
		p.comp.AddRoad(compose.RoadRank(w.Tags["highway"]), casing, line)
	} else {
		p.comp.Add(line)
	}

	p.lineLabel(w.Tags, res, pts, stats)
}

func (p *pass) track(geo []vectormap.GeoPoint, stats *Stats) {
	pts := p.project(geo, stats)
	if simplify.Degenerate(pts, minSpan) {
		stats.Degenerate++
		return
	}
	paint := p.set.Track
	p.comp.Add(&compose.Line{
		Layer:   compose.LayerTracks,
		Points:  pts,
		Color:   paint.Color,
		Width:   paint.Width,
		Opacity: paint.Alpha(),
		Dash:    paint.Dash,
	})
}

func (p *pass) node(n *vectormap.Node, stats *Stats) {
	res, ok := style.Resolve(n.Tags, style.KindNode, p.set, p.zoom)
	if !ok {
		stats.Unstyled++
		return
	}
	at := p.vp.Project(n.Point)

	if res.Radius > 0 {
		pt := &compose.Point{
			Layer:   compose.LayerPOIs,
			At:      at,
			Radius:  res.Radius,
			Fill:    res.Fill(),
			Opacity: res.Alpha(),
		}
		if res.BorderWidth > 0 {
			pt.Stroke = res.BorderColor
			pt.StrokeWidth = res.BorderWidth
		}
		p.comp.Add(pt)
	}

	text := labelText(n.Tags, res)
	if text == "" {
		return
	}

	if isPlace(n.Tags) {
		if p.zoom < res.LabelMinZoom {
			return
		}
		p.label(at, text, fontSize(res, p.set.Labels.PlaceFontSize), stats)
		return
	}

	if !POILabelVisible(p.vp.Scale, p.opts.LabelScale) || p.zoom < res.LabelMinZoom {
		return
	}
	size := fontSize(res, p.set.Labels.POIFontSize)
	at.Y += res.Radius + poiLabelGap + size
	p.label(at, text, size, stats)
}

// lineLabel places a label at the middle point of the simplified line
func (p *pass) lineLabel(tags vectormap.Tags, res style.Resolved, pts []vectormap.PixelPoint, stats *Stats) {
	text := labelText(tags, res)
	if text == "" || p.zoom < res.LabelMinZoom {
		return
	}
	p.label(pts[len(pts)/2], text, fontSize(res, p.set.Labels.RoadFontSize), stats)
}

// areaLabel places a label at the center of the polygon extent
func (p *pass) areaLabel(tags vectormap.Tags, res style.Resolved, pts []vectormap.PixelPoint, stats *Stats) {
	text := labelText(tags, res)
	if text == "" || p.zoom < res.LabelMinZoom {
		return
	}
	minX, minY, maxX, maxY := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, pt := range pts[1:] {
		if pt.X < minX {
			minX = pt.X
		}
		if pt.X > maxX {
			maxX = pt.X
		}
		if pt.Y < minY {
			minY = pt.Y
		}
		if pt.Y > maxY {
			maxY = pt.Y
		}
	}
	center := vectormap.PixelPoint{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}
	p.label(center, text, fontSize(res, p.set.Labels.PlaceFontSize), stats)
}

func (p *pass) label(at vectormap.PixelPoint, text string, size float64, stats *Stats) {
	ls := p.set.Labels
	p.comp.Add(&compose.Text{
		Layer:      compose.LayerLabels,
		At:         at,
		Text:       text,
		FontFamily: ls.FontFamily,
		FontSize:   size,
		Color:      ls.Color,
		HaloColor:  ls.HaloColor,
		HaloWidth:  ls.HaloWidth,
	})
	stats.Labels++
}

// POILabelVisible reports whether point of interest labels are shown at scale
func POILabelVisible(scale, threshold float64) bool {
	return scale >= threshold
}

func labelText(tags vectormap.Tags, res style.Resolved) string {
	if res.TextField == "" {
		return ""
	}
	return strings.TrimSpace(tags[res.TextField])
}

func isPlace(tags vectormap.Tags) bool {
	key, ok := style.CategoryKey(tags)
	return ok && strings.HasPrefix(key, "place_")
}

func fontSize(res style.Resolved, fallback float64) float64 {
	if res.FontSize > 0 {
		return res.FontSize
	}
	return fallback
}

// ExportError a sink failed to write the frame
type ExportError struct {
	Op   string
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("export %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("export %s: %v", e.Op, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
