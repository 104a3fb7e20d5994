package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/namsral/flag"
	"github.com/tdewolff/canvas"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/compose"
	"github.com/akhenakh/vectormap/loader"
	"github.com/akhenakh/vectormap/loglevel"
	"github.com/akhenakh/vectormap/render"
	canvassink "github.com/akhenakh/vectormap/sink/canvas"
	"github.com/akhenakh/vectormap/sink/svg"
	"github.com/akhenakh/vectormap/storage/bbolt"
	"github.com/akhenakh/vectormap/style"
)

const appName = "mapexport"

var (
	logLevel  = flag.String("logLevel", "INFO", "DEBUG|INFO|WARN|ERROR")
	dbPath    = flag.String("dbPath", "", "Database path, used when no filePaths are given")
	filePaths = flag.String("filePaths", "", "Comma separated inputs rendered without import")
	outPath   = flag.String("out", "map.svg", "Output file, .svg or .png")
	strategy  = flag.String("strategy", vectormap.RTreeStrategy, "Culling strategy to use: rtree|s2|scan")

	styleName = flag.String("style", style.DefaultName, "Stored style set name")
	styleFile = flag.String("styleFile", "", "JSON style set, overrides style")
	fontName  = flag.String("fontName", "", "Local font family used for PNG labels")

	lat        = flag.Float64("lat", 0, "Center latitude")
	lon        = flag.Float64("lon", 0, "Center longitude")
	zoom       = flag.Float64("zoom", -1, "Web zoom level, fits the data when negative and no scale is given")
	scale      = flag.Float64("scale", 0, "Scale in pixels per degree, overrides zoom")
	width      = flag.Int("width", 1600, "Output width in pixels")
	height     = flag.Int("height", 1200, "Output height in pixels")
	projection = flag.String("projection", "mercator", "mercator|equirectangular")
	precision  = flag.Int("precision", svg.DefaultPrecision, "SVG coordinates decimals")
	timestamp  = flag.Bool("timestamp", false, "Write the generation time in the SVG")
)

func main() {
	flag.Parse()

	exitcode := 0
	defer func() { os.Exit(exitcode) }()

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger, "caller", log.Caller(5), "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "app", appName)
	logger = loglevel.NewLevelFilterFromString(logger, *logLevel)

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

	fs, set, err := load(ctx, logger)
	if err != nil {
		level.Error(logger).Log("msg", "can't load map", "error", err)

		exitcode = 1

		return
	}

	scene, err := render.NewScene(fs, *strategy)
	if err != nil {
		level.Error(logger).Log("msg", "can't index features", "error", err)

		exitcode = 1

		return
	}

	vp, err := viewport(scene)
	if err != nil {
		level.Error(logger).Log("msg", "invalid viewport", "error", err)

		exitcode = 1

		return
	}

	newSink, err := sinkFor(*outPath)
	if err != nil {
		level.Error(logger).Log("msg", "invalid output", "error", err)

		exitcode = 1

		return
	}

	renderer := render.NewRenderer(logger, render.DefaultOptions())

	job := render.Export(ctx, logger, func(ctx context.Context) error {
		f := renderer.Frame(scene, set, vp)
		if err := ctx.Err(); err != nil {
			return err
		}
		return render.WriteFile(*outPath, f, newSink)
	})

	if err := job.Wait(ctx); err != nil {
		var eerr *render.ExportError
		if errors.As(err, &eerr) {
			level.Error(logger).Log("msg", "export failed", "op", eerr.Op, "path", eerr.Path, "error", eerr.Err)
		} else {
			level.Error(logger).Log("msg", "export interrupted", "error", err)
		}

		exitcode = 1

		return
	}

	level.Info(logger).Log("msg", "map exported",
		"path", *outPath,
		"zoom", vp.Zoom(),
		"features", scene.Len(),
		"duration", job.Duration(),
	)
}

func load(ctx context.Context, logger log.Logger) (*vectormap.FeatureSet, *style.Set, error) {
	var fs *vectormap.FeatureSet
	set := style.Default()

	if *filePaths != "" {
		var err error
		fs, err = loader.LoadFiles(ctx, strings.Split(*filePaths, ",")...)
		if err != nil {
			return nil, nil, err
		}
	} else {
		if *dbPath == "" {
			return nil, nil, errors.New("one of dbPath or filePaths is required")
		}

		storage, clean, err := bbolt.NewROStorage(*dbPath, logger)
		if err != nil {
			return nil, nil, err
		}
		defer clean()

		fs, err = storage.LoadFeatureSet()
		if err != nil {
			return nil, nil, err
		}

		if *styleFile == "" && *styleName != style.DefaultName {
			set, err = storage.LoadStyleSet(*styleName)
			if err != nil {
				return nil, nil, fmt.Errorf("style %s: %w", *styleName, err)
			}
		}
	}

	if *styleFile != "" {
		f, err := os.Open(*styleFile)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()

		set, err = style.LoadJSON(f)
		if err != nil {
			return nil, nil, err
		}
	}

	return fs, set, nil
}

func viewport(scene *render.Scene) (vectormap.Viewport, error) {
	if *width <= 0 || *height <= 0 {
		return vectormap.Viewport{}, fmt.Errorf("invalid size %dx%d", *width, *height)
	}

	proj := vectormap.ProjectionFromString(*projection)
	if *scale <= 0 && *zoom < 0 {
		b, ok := scene.Bounds()
		if !ok {
			return vectormap.Viewport{}, errors.New("nothing to fit, no valid feature")
		}
		return vectormap.ViewportFitting(b, *width, *height, proj), nil
	}

	vp := vectormap.NewViewportForZoom(vectormap.GeoPoint{Lat: *lat, Lon: *lon}, *zoom, *width, *height)
	vp.Projection = proj
	if *scale > 0 {
		vp.Scale = *scale
	}
	if !vp.Center.Valid(vp.MaxLatitude()) {
		return vectormap.Viewport{}, fmt.Errorf("center %f,%f out of range", *lat, *lon)
	}
	return vp, nil
}

func sinkFor(path string) (func(w io.Writer) compose.Sink, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		opts := svg.DefaultOptions()
		opts.Precision = *precision
		if *timestamp {
			opts.Timestamp = time.Now()
		}
		return svg.NewWriter(opts), nil
	case ".png":
		var font *canvas.FontFamily
		if *fontName != "" {
			var err error
			font, err = canvassink.LoadFont(*fontName)
			if err != nil {
				return nil, err
			}
		}
		return canvassink.NewPNGWriter(font), nil
	}
	return nil, fmt.Errorf("unsupported output %s", path)
}
