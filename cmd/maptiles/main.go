package main

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/namsral/flag"
	"github.com/tdewolff/canvas"
	"golang.org/x/sync/errgroup"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/compose"
	"github.com/akhenakh/vectormap/loglevel"
	"github.com/akhenakh/vectormap/render"
	"github.com/akhenakh/vectormap/server"
	canvassink "github.com/akhenakh/vectormap/sink/canvas"
	"github.com/akhenakh/vectormap/sink/svg"
	"github.com/akhenakh/vectormap/storage/bbolt"
	"github.com/akhenakh/vectormap/style"
)

const appName = "maptiles"

var (
	logLevel  = flag.String("logLevel", "INFO", "DEBUG|INFO|WARN|ERROR")
	dbPath    = flag.String("dbPath", "map.db", "Database path, tiles are stored next to the features")
	strategy  = flag.String("strategy", vectormap.RTreeStrategy, "Culling strategy to use: rtree|s2|scan")
	styleName = flag.String("style", style.DefaultName, "Style set to render")
	format    = flag.String("format", server.FormatPNG, "Tile format: png|svg")
	fontName  = flag.String("fontName", "", "Local font family used for PNG labels")
	minZoom   = flag.Int("minZoom", 0, "First zoom level to render")
	maxZoom   = flag.Int("maxZoom", 14, "Last zoom level to render")
	workers   = flag.Int("workers", runtime.NumCPU(), "Concurrent renders")
)

func main() {
	flag.Parse()

	exitcode := 0
	defer func() { os.Exit(exitcode) }()

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger, "caller", log.Caller(5), "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "app", appName)
	logger = loglevel.NewLevelFilterFromString(logger, *logLevel)

	if *minZoom < 0 || *maxZoom > server.DefaultMaxZoom || *minZoom > *maxZoom {
		level.Error(logger).Log("msg", "invalid zoom range", "min_zoom", *minZoom, "max_zoom", *maxZoom)

		exitcode = 1

		return
	}

	storage, clean, err := bbolt.NewStorage(*dbPath, logger)
	if err != nil {
		level.Error(logger).Log("msg", "can't open storage", "error", err, "db_path", *dbPath)

		exitcode = 1

		return
	}

	defer clean()

	fs, err := storage.LoadFeatureSet()
	if err != nil {
		level.Error(logger).Log("msg", "can't load features", "error", err)

		exitcode = 1

		return
	}

	set := style.Default()
	if *styleName != set.Name {
		set, err = storage.LoadStyleSet(*styleName)
		if err != nil {
			level.Error(logger).Log("msg", "can't load style set", "error", err, "style", *styleName)

			exitcode = 1

			return
		}
	}

	scene, err := render.NewScene(fs, *strategy)
	if err != nil {
		level.Error(logger).Log("msg", "can't index features", "error", err)

		exitcode = 1

		return
	}

	bounds, ok := scene.Bounds()
	if !ok {
		level.Error(logger).Log("msg", "nothing to render")

		exitcode = 1

		return
	}

	var newSink func(b *bytes.Buffer) compose.Sink
	switch *format {
	case server.FormatSVG:
		newSink = func(b *bytes.Buffer) compose.Sink { return svg.New(b, svg.DefaultOptions()) }
	case server.FormatPNG:
		var font *canvas.FontFamily
		if *fontName != "" {
			font, err = canvassink.LoadFont(*fontName)
			if err != nil {
				level.Error(logger).Log("msg", "can't load font", "error", err, "font", *fontName)

				exitcode = 1

				return
			}
		}
		newSink = func(b *bytes.Buffer) compose.Sink { return canvassink.NewPNG(b, font) }
	default:
		level.Error(logger).Log("msg", "unknown format", "format", *format)

		exitcode = 1

		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// catch termination
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(interrupt)

	go func() {
		select {
		case <-interrupt:
			cancel()
		case <-ctx.Done():
		}
	}()

	if *workers < 1 {
		*workers = 1
	}

	renderer := render.NewRenderer(logger, render.DefaultOptions())
	tiles := make(chan bbolt.TileAddress, *workers)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(tiles)

		nw := vectormap.GeoPoint{Lat: bounds.Max[1], Lon: bounds.Min[0]}
		se := vectormap.GeoPoint{Lat: bounds.Min[1], Lon: bounds.Max[0]}
		for z := uint8(*minZoom); z <= uint8(*maxZoom); z++ {
			minX, minY := vectormap.TileXY(nw, z)
			maxX, maxY := vectormap.TileXY(se, z)
			for x := minX; x <= maxX; x++ {
				for y := minY; y <= maxY; y++ {
					select {
					case tiles <- bbolt.TileAddress{Style: set.Name, Format: *format, Z: z, X: x, Y: y}:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		}
		return nil
	})

	var count uint64
	counts := make(chan uint64, *workers)
	for i := 0; i < *workers; i++ {
		g.Go(func() error {
			var n uint64
			defer func() { counts <- n }()

			var buf bytes.Buffer
			for addr := range tiles {
				buf.Reset()
				vp := vectormap.TileViewport(addr.Z, addr.X, addr.Y, server.TileSize)
				if err := renderer.Render(scene, set, vp, newSink(&buf)); err != nil {
					return err
				}
				if err := storage.StoreTile(addr, buf.Bytes()); err != nil {
					return err
				}
				n++
				level.Debug(logger).Log("msg", "tile stored", "z", addr.Z, "x", addr.X, "y", addr.Y, "size", buf.Len())
			}
			return nil
		})
	}

	err = g.Wait()
	close(counts)
	for n := range counts {
		count += n
	}

	if err != nil {
		level.Error(logger).Log("msg", "tile rendering failed", "error", err, "tiles", count)

		exitcode = 1

		return
	}

	level.Info(logger).Log("msg", "tiles rendered",
		"style", set.Name,
		"format", *format,
		"tiles", count,
		"duration", time.Since(start),
	)
}
