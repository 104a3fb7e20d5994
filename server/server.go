package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/opentracing/opentracing-go"
	slog "github.com/opentracing/opentracing-go/log"
	"github.com/tdewolff/canvas"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/compose"
	"github.com/akhenakh/vectormap/render"
	canvassink "github.com/akhenakh/vectormap/sink/canvas"
	"github.com/akhenakh/vectormap/sink/svg"
	"github.com/akhenakh/vectormap/storage/bbolt"
	"github.com/akhenakh/vectormap/style"
)

const (
	FormatSVG = "svg"
	FormatPNG = "png"

	// TileSize pixel size of a web tile
	TileSize = 256

	DefaultMaxSize = 4096
	DefaultMaxZoom = 20
	DefaultWidth   = 800
	DefaultHeight  = 600

	// DefaultCacheMaxCost 128M of rendered images
	DefaultCacheMaxCost = 1 << 27
)

var (
	// ErrUnknownStyle no style set with this name
	ErrUnknownStyle = errors.New("unknown style")

	// ErrUnknownFormat not an output format
	ErrUnknownFormat = errors.New("unknown format")

	// ErrExportDisabled no export directory configured
	ErrExportDisabled = errors.New("export disabled")
)

// TileStore pre rendered tiles
type TileStore interface {
	ReadTileData(addr bbolt.TileAddress) ([]byte, error)
}

// Options server configuration
type Options struct {
	DefaultStyle string
	// ExportDir where background exports are written, exports are disabled when empty
	ExportDir string
	// Font used for labels in raster output, labels are not drawn when nil
	Font *canvas.FontFamily
	// MaxSize max width or height of a rendered image
	MaxSize int
	MaxZoom int
	// CacheMaxCost max bytes of rendered images kept in memory, 0 disables the cache
	CacheMaxCost int64
}

// Server exposes the renderer over HTTP
type Server struct {
	ctx      context.Context
	logger   log.Logger
	scene    *render.Scene
	renderer *render.Renderer
	styles   map[string]*style.Set
	tiles    TileStore
	cache    *ristretto.Cache
	opts     Options

	mu      sync.Mutex
	exports map[string]*export
	seq     uint64
}

type export struct {
	ID     string
	Format string
	Path   string
	job    *render.Job
}

// New returns a Server rendering scene with styles.
// ctx bounds the lifetime of background exports, tiles may be nil.
func New(
	ctx context.Context,
	logger log.Logger,
	scene *render.Scene,
	renderer *render.Renderer,
	styles map[string]*style.Set,
	tiles TileStore,
	opts Options,
) (*Server, error) {
	if len(styles) == 0 {
		return nil, errors.New("no style set")
	}

	if opts.DefaultStyle == "" {
		opts.DefaultStyle = styleNames(styles)[0]
	}
	if _, ok := styles[opts.DefaultStyle]; !ok {
		return nil, fmt.Errorf("default style %q: %w", opts.DefaultStyle, ErrUnknownStyle)
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = DefaultMaxZoom
	}

	s := &Server{
		ctx:      ctx,
		logger:   log.With(logger, "component", "server"),
		scene:    scene,
		renderer: renderer,
		styles:   styles,
		tiles:    tiles,
		opts:     opts,
		exports:  make(map[string]*export),
	}

	if opts.CacheMaxCost > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1e4,               // number of keys to track frequency
			MaxCost:     opts.CacheMaxCost, // bytes
			BufferItems: 64,                // number of keys per Get buffer.
		})
		if err != nil {
			return nil, fmt.Errorf("cache error: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// LoadStyles reads every style set from store, the built-in default set is
// added when the store holds none under its name
func LoadStyles(store vectormap.Store) (map[string]*style.Set, error) {
	names, err := store.StyleSetNames()
	if err != nil {
		return nil, fmt.Errorf("can't list style sets: %w", err)
	}

	styles := make(map[string]*style.Set, len(names)+1)
	for _, name := range names {
		set, err := store.LoadStyleSet(name)
		if err != nil {
			return nil, fmt.Errorf("can't load style set %s: %w", name, err)
		}
		styles[name] = set
	}

	d := style.Default()
	if _, ok := styles[d.Name]; !ok {
		styles[d.Name] = d
	}

	return styles, nil
}

// Request a render request
type Request struct {
	Viewport vectormap.Viewport
	Style    string
	Format   string
	// Precision svg decimals, negative means svg.DefaultPrecision
	Precision int
}

func (r Request) key() string {
	vp := r.Viewport
	return fmt.Sprintf("%s/%s/%d/%s/%s/%s/%s/%dx%d",
		r.Style, r.Format, r.Precision, vp.Projection,
		strconv.FormatFloat(vp.Center.Lat, 'g', -1, 64),
		strconv.FormatFloat(vp.Center.Lon, 'g', -1, 64),
		strconv.FormatFloat(vp.Scale, 'g', -1, 64),
		vp.Width, vp.Height,
	)
}

// ContentType returns the mime type of format
func ContentType(format string) string {
	if format == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Styles returns the sorted style set names
func (s *Server) Styles() []string {
	return styleNames(s.styles)
}

func (s *Server) style(name string) (*style.Set, error) {
	if name == "" {
		name = s.opts.DefaultStyle
	}
	set, ok := s.styles[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownStyle)
	}
	return set, nil
}

// Render returns the encoded image for req
func (s *Server) Render(ctx context.Context, req Request) (data []byte, terr error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "Render")
	defer span.Finish()

	defer func() { s.handleError(terr, span) }()

	span.LogFields(
		slog.Float64("lat", req.Viewport.Center.Lat),
		slog.Float64("lon", req.Viewport.Center.Lon),
		slog.Float64("scale", req.Viewport.Scale),
		slog.String("format", req.Format),
	)

	if req.Style == "" {
		req.Style = s.opts.DefaultStyle
	}

	key := req.key()
	if s.cache != nil {
		if v, found := s.cache.Get(key); found {
			renderHitCounter.Inc()
			return v.([]byte), nil
		}
		renderMissCounter.Inc()
	}

	set, err := s.style(req.Style)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	f := s.renderer.Frame(s.scene, set, req.Viewport)

	var buf bytes.Buffer
	sink, err := s.sink(&buf, req.Format, req.Precision)
	if err != nil {
		return nil, err
	}
	if err := f.Emit(sink); err != nil {
		return nil, &render.ExportError{Op: "draw", Err: err}
	}
	renderDuration.WithLabelValues(req.Format).Observe(time.Since(start).Seconds())

	data = buf.Bytes()
	if s.cache != nil {
		s.cache.Set(key, data, int64(len(data)))
	}

	return data, nil
}

// Tile returns a web tile, from the tile store when pre rendered
func (s *Server) Tile(ctx context.Context, addr bbolt.TileAddress) (data []byte, terr error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Tile")
	defer span.Finish()

	defer func() { s.handleError(terr, span) }()

	if addr.Style == "" {
		addr.Style = s.opts.DefaultStyle
	}

	if s.tiles != nil {
		data, err := s.tiles.ReadTileData(addr)
		if err != nil {
			return nil, fmt.Errorf("can't read tile: %w", err)
		}
		if data != nil {
			tileStoreHitCounter.Inc()
			return data, nil
		}
	}

	return s.Render(ctx, Request{
		Viewport:  vectormap.TileViewport(addr.Z, addr.X, addr.Y, TileSize),
		Style:     addr.Style,
		Format:    addr.Format,
		Precision: -1,
	})
}

func (s *Server) sink(w io.Writer, format string, precision int) (compose.Sink, error) {
	switch format {
	case FormatSVG:
		opts := svg.DefaultOptions()
		opts.Precision = precision
		return svg.New(w, opts), nil
	case FormatPNG:
		return canvassink.NewPNG(w, s.opts.Font), nil
	}
	return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
}

func (s *Server) newSink(format string, precision int) func(w io.Writer) compose.Sink {
	return func(w io.Writer) compose.Sink {
		sink, _ := s.sink(w, format, precision)
		return sink
	}
}

// ExportStatus the state of a background export
type ExportStatus struct {
	ID       string  `json:"id"`
	Format   string  `json:"format"`
	State    string  `json:"state"`
	Duration float64 `json:"duration_seconds"`
	Error    string  `json:"error,omitempty"`
}

// StartExport renders req into a file of the export directory in the background
func (s *Server) StartExport(ctx context.Context, req Request) (status *ExportStatus, terr error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "StartExport")
	defer span.Finish()

	defer func() { s.handleError(terr, span) }()

	if s.opts.ExportDir == "" {
		return nil, ErrExportDisabled
	}

	set, err := s.style(req.Style)
	if err != nil {
		return nil, err
	}
	if _, err := s.sink(io.Discard, req.Format, req.Precision); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.seq++
	id := strconv.FormatUint(s.seq, 10)
	s.mu.Unlock()

	e := &export{
		ID:     id,
		Format: req.Format,
		Path:   filepath.Join(s.opts.ExportDir, "export-"+id+"."+req.Format),
	}

	logger := log.With(s.logger, "export", id, "path", e.Path)
	e.job = render.Export(s.ctx, logger, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := s.renderer.Frame(s.scene, set, req.Viewport)
		return render.WriteFile(e.Path, f, s.newSink(req.Format, req.Precision))
	})

	s.mu.Lock()
	s.exports[id] = e
	s.mu.Unlock()

	exportCounter.Inc()
	level.Info(logger).Log("msg", "export started")

	return e.status(), nil
}

// Export returns a started export, false when unknown
func (s *Server) Export(id string) (*ExportStatus, string, bool) {
	s.mu.Lock()
	e, ok := s.exports[id]
	s.mu.Unlock()
	if !ok {
		return nil, "", false
	}
	return e.status(), e.Path, true
}

// WaitExport blocks until the export id completes
func (s *Server) WaitExport(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.exports[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown export %s", id)
	}
	return e.job.Wait(ctx)
}

func (e *export) status() *ExportStatus {
	st := &ExportStatus{
		ID:       e.ID,
		Format:   e.Format,
		State:    e.job.State().String(),
		Duration: e.job.Duration().Seconds(),
	}
	if err := e.job.Err(); err != nil {
		st.Error = err.Error()
	}
	return st
}

// Features returns the culled features of vp
func (s *Server) Features(ctx context.Context, vp vectormap.Viewport) []vectormap.FeatureRef {
	span, _ := opentracing.StartSpanFromContext(ctx, "Features")
	defer span.Finish()

	return s.scene.Cull(vp.VisibleBounds(s.renderer.Options().CullMargin))
}

func (s *Server) handleError(terr error, span opentracing.Span) {
	if terr != nil {
		// do not log client errors as error
		if errors.Is(terr, ErrUnknownStyle) || errors.Is(terr, ErrUnknownFormat) || errors.Is(terr, ErrExportDisabled) {
			level.Debug(s.logger).Log("error", terr)

			return
		}

		errorCounter.Inc()
		span.LogFields(
			slog.String("error", terr.Error()),
		)
		span.SetTag("error", true)

		level.Error(s.logger).Log("error", terr)
	}
}

func styleNames(styles map[string]*style.Set) []string {
	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
