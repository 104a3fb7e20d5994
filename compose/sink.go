package compose

import "github.com/akhenakh/vectormap/style"

// FrameInfo describes the surface a frame is drawn onto
type FrameInfo struct {
	Width, Height int
	Background    style.Color
	Scale         float64
	Zoom          float64
}

// Sink consumes an ordered primitive stream.
// Begin is called once before any primitive and End once after the last one.
type Sink interface {
	Begin(info FrameInfo) error
	Point(p *Point) error
	Line(l *Line) error
	Polygon(p *Polygon) error
	Text(t *Text) error
	End() error
}

// Recorder a Sink keeping every primitive in order
type Recorder struct {
	Info       FrameInfo
	Primitives []Primitive
	Ended      bool
}

func (r *Recorder) Begin(info FrameInfo) error {
	r.Info = info
	r.Primitives = r.Primitives[:0]
	r.Ended = false
	return nil
}

func (r *Recorder) Point(p *Point) error {
	r.Primitives = append(r.Primitives, p)
	return nil
}

func (r *Recorder) Line(l *Line) error {
	r.Primitives = append(r.Primitives, l)
	return nil
}

func (r *Recorder) Polygon(p *Polygon) error {
	r.Primitives = append(r.Primitives, p)
	return nil
}

func (r *Recorder) Text(t *Text) error {
	r.Primitives = append(r.Primitives, t)
	return nil
}

func (r *Recorder) End() error {
	r.Ended = true
	return nil
}

// Layers returns the layer of every recorded primitive
func (r *Recorder) Layers() []Layer {
	ls := make([]Layer, len(r.Primitives))
	for i, p := range r.Primitives {
		ls[i] = p.layer()
	}
	return ls
}
