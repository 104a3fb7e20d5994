package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_opentracing "github.com/grpc-ecosystem/go-grpc-middleware/tracing/opentracing"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/namsral/flag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	metrics "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/tdewolff/canvas"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/loglevel"
	"github.com/akhenakh/vectormap/render"
	"github.com/akhenakh/vectormap/server"
	"github.com/akhenakh/vectormap/simplify"
	canvassink "github.com/akhenakh/vectormap/sink/canvas"
	"github.com/akhenakh/vectormap/storage/bbolt"
	"github.com/akhenakh/vectormap/style"
)

const appName = "maprenderd"

var (
	version = "no version from LDFLAGS"

	logLevel        = flag.String("logLevel", "INFO", "DEBUG|INFO|WARN|ERROR")
	dbPath          = flag.String("dbPath", "map.db", "Database path")
	httpMetricsPort = flag.Int("httpMetricsPort", 8088, "http port")
	httpAPIPort     = flag.Int("httpAPIPort", 8080, "http API port")
	healthPort      = flag.Int("healthPort", 6666, "grpc health port")

	strategy       = flag.String("strategy", vectormap.RTreeStrategy, "Culling strategy to use: rtree|s2|scan")
	styleFile      = flag.String("styleFile", "", "Optional JSON style set to serve in addition to the stored ones")
	defaultStyle   = flag.String("defaultStyle", "", "Style used when none is requested, defaults to the map default")
	exportDir      = flag.String("exportDir", "", "Directory receiving background exports, disabled when empty")
	fontName       = flag.String("fontName", "", "Local font family used for PNG labels, no PNG labels when empty")
	cacheMaxCost   = flag.Int64("cacheMaxCost", server.DefaultCacheMaxCost, "Bytes of rendered images to cache, 0 to disable")
	maxSize        = flag.Int("maxSize", server.DefaultMaxSize, "Max width and height of a rendered image")
	pixelTolerance = flag.Float64("pixelTolerance", simplify.DefaultPixelTolerance, "Simplification tolerance in pixels")
	labelScale     = flag.Float64("labelScale", render.DefaultLabelScale, "Scale in pixels per degree from which POI labels are shown")

	grpcHealthServer  *grpc.Server
	httpServer        *http.Server
	httpMetricsServer *http.Server
)

func main() {
	flag.Parse()

	exitcode := 0
	defer func() { os.Exit(exitcode) }()

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger, "caller", log.Caller(5), "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "app", appName)
	logger = loglevel.NewLevelFilterFromString(logger, *logLevel)

	stdlog.SetOutput(log.NewStdlibAdapter(logger))

	level.Info(logger).Log("msg", "Starting app", "version", version)

	if !vectormap.ValidStrategy(*strategy) {
		level.Error(logger).Log("msg", "unknown strategy", "strategy", *strategy)

		exitcode = 1

		return
	}

	storage, clean, err := bbolt.NewROStorage(*dbPath, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open storage", "error", err, "db_path", *dbPath)

		exitcode = 1

		return
	}

	defer clean()

	infos, err := storage.LoadIndexInfos()
	if err != nil {
		level.Error(logger).Log("msg", "failed to read infos", "error", err)

		exitcode = 1

		return
	}

	level.Info(logger).Log("msg", "read index_infos",
		"node_count", infos.NodeCount,
		"way_count", infos.WayCount,
		"track_count", infos.TrackCount,
	)

	fs, err := storage.LoadFeatureSet()
	if err != nil {
		level.Error(logger).Log("msg", "failed to load features", "error", err)

		exitcode = 1

		return
	}

	start := time.Now()
	scene, err := render.NewScene(fs, *strategy)
	if err != nil {
		level.Error(logger).Log("msg", "failed to index features", "error", err)

		exitcode = 1

		return
	}

	level.Info(logger).Log("msg", "features indexed",
		"strategy", *strategy,
		"indexed", scene.Len(),
		"skipped", scene.Skipped,
		"duration", time.Since(start),
	)

	styles, err := server.LoadStyles(storage)
	if err != nil {
		level.Error(logger).Log("msg", "failed to load styles", "error", err)

		exitcode = 1

		return
	}

	if *styleFile != "" {
		set, err := loadStyleFile(*styleFile)
		if err != nil {
			level.Error(logger).Log("msg", "failed to load style file", "error", err, "path", *styleFile)

			exitcode = 1

			return
		}
		styles[set.Name] = set
	}

	ds := *defaultStyle
	if ds == "" {
		ds = style.DefaultName
		if mi, ok, err := storage.LoadMapInfos(); err == nil && ok && mi.DefaultStyle != "" {
			ds = mi.DefaultStyle
		}
	}

	var font *canvas.FontFamily
	if *fontName != "" {
		font, err = canvassink.LoadFont(*fontName)
		if err != nil {
			level.Error(logger).Log("msg", "failed to load font", "error", err, "font", *fontName)

			exitcode = 1

			return
		}
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)

	// catch termination
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	renderer := render.NewRenderer(logger, render.Options{
		PixelTolerance: *pixelTolerance,
		CullMargin:     render.DefaultCullMargin,
		LabelScale:     *labelScale,
	})

	srv, err := server.New(ctx, logger, scene, renderer, styles, storage, server.Options{
		DefaultStyle: ds,
		ExportDir:    *exportDir,
		Font:         font,
		MaxSize:      *maxSize,
		CacheMaxCost: *cacheMaxCost,
	})
	if err != nil {
		level.Error(logger).Log("msg", "can't get a working server", "error", err)

		exitcode = 1

		return
	}

	// gRPC Health Server
	healthServer := health.NewServer()

	g.Go(func() error {
		grpcHealthServer = grpc.NewServer(
			// MaxConnectionAge is just to avoid long connection, to facilitate load balancing
			// MaxConnectionAgeGrace will torn them, default to infinity
			grpc.KeepaliveParams(keepalive.ServerParameters{MaxConnectionAge: 5 * time.Minute}),
			grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(
				grpc_opentracing.StreamServerInterceptor(),
				grpc_prometheus.StreamServerInterceptor,
			)),
			grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
				grpc_opentracing.UnaryServerInterceptor(),
				grpc_prometheus.UnaryServerInterceptor,
			)),
		)

		healthpb.RegisterHealthServer(grpcHealthServer, healthServer)
		grpc_prometheus.EnableHandlingTimeHistogram()
		grpc_prometheus.Register(grpcHealthServer)

		haddr := fmt.Sprintf(":%d", *healthPort)
		hln, err := net.Listen("tcp", haddr)
		if err != nil {
			level.Error(logger).Log("msg", "gRPC Health server: failed to listen", "error", err)
			os.Exit(2)
		}
		level.Info(logger).Log("msg", fmt.Sprintf("gRPC health server listening at %s", haddr))

		return grpcHealthServer.Serve(hln)
	})

	// web server metrics
	g.Go(func() error {
		httpMetricsServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", *httpMetricsPort),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		level.Info(logger).Log("msg", fmt.Sprintf("HTTP Metrics server listening at :%d", *httpMetricsPort))

		versionGauge.WithLabelValues(version).Add(1)
		dataVersionGauge.WithLabelValues(
			fmt.Sprintf("%s %s", infos.Filename, infos.IndexTime.Format(time.RFC3339)),
		).Add(1)
		featuresGauge.WithLabelValues(*strategy).Set(float64(scene.Len()))

		// Register Prometheus metrics handler.
		http.Handle("/metrics", promhttp.Handler())

		if err := httpMetricsServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	// API web server
	g.Go(func() error {
		// metrics middleware.
		metricsMwr := middleware.New(middleware.Config{
			Recorder: metrics.NewRecorder(metrics.Config{Prefix: appName}),
		})

		r := mux.NewRouter()

		srv.Routes(r, metricsMwr.Handler)

		r.HandleFunc("/healthz", func(w http.ResponseWriter, request *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			resp, err := healthServer.Check(ctx, &healthpb.HealthCheckRequest{
				Service: fmt.Sprintf("grpc.health.v1.%s", appName)},
			)
			if err != nil {
				json := []byte(fmt.Sprintf("{\"status\": \"%s\"}", healthpb.HealthCheckResponse_UNKNOWN.String()))
				w.WriteHeader(http.StatusInternalServerError)
				w.Write(json)
				return
			}
			if resp.Status != healthpb.HealthCheckResponse_SERVING {
				w.WriteHeader(http.StatusInternalServerError)
			}
			json := []byte(fmt.Sprintf("{\"status\": \"%s\"}", resp.Status.String()))
			w.Write(json)
		})

		httpServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", *httpAPIPort),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			Handler:      handlers.CompressHandler(handlers.CORS()(r)),
		}
		level.Info(logger).Log("msg", fmt.Sprintf("HTTP API server listening at :%d", *httpAPIPort))

		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	healthServer.SetServingStatus(fmt.Sprintf("grpc.health.v1.%s", appName), healthpb.HealthCheckResponse_SERVING)
	level.Info(logger).Log("msg", "serving status to SERVING")

	select {
	case <-interrupt:
		cancel()
		break
	case <-ctx.Done():
		break
	}

	level.Warn(logger).Log("msg", "received shutdown signal")

	healthServer.SetServingStatus(fmt.Sprintf("grpc.health.v1.%s", appName), healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpMetricsServer != nil {
		_ = httpMetricsServer.Shutdown(shutdownCtx)
	}

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if grpcHealthServer != nil {
		grpcHealthServer.GracefulStop()
	}

	err = g.Wait()
	if err != nil {
		level.Error(logger).Log("msg", "server returning an error", "error", err)

		exitcode = 1
	}
}

func loadStyleFile(path string) (*style.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return style.LoadJSON(f)
}
