package main

import (
	"context"
	"os"
	"strings"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/namsral/flag"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/loader"
	"github.com/akhenakh/vectormap/loglevel"
	"github.com/akhenakh/vectormap/storage/bbolt"
	"github.com/akhenakh/vectormap/style"
)

const appName = "mapimport"

var (
	version = "no version from LDFLAGS"

	logLevel  = flag.String("logLevel", "INFO", "DEBUG|INFO|WARN|ERROR")
	dbPath    = flag.String("dbPath", "map.db", "Database path")
	filePaths = flag.String("filePaths", "", "Comma separated inputs: .osm, .osm.pbf, .geojson or .gpx")
	styleFile = flag.String("styleFile", "", "Optional JSON style set to store, becomes the default style")
	maxZoom   = flag.Int("maxZoom", 18, "max zoom advertised for the map")
)

func main() {
	flag.Parse()

	exitcode := 0
	defer func() { os.Exit(exitcode) }()

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger, "caller", log.Caller(5), "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "app", appName)
	logger = loglevel.NewLevelFilterFromString(logger, *logLevel)

	paths := append(strings.Split(*filePaths, ","), flag.Args()...)
	inputs := paths[:0]
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			inputs = append(inputs, p)
		}
	}
	if len(inputs) == 0 {
		level.Error(logger).Log("msg", "no input files")

		exitcode = 1

		return
	}

	start := time.Now()
	fs, err := loader.LoadFiles(context.Background(), inputs...)
	if err != nil {
		level.Error(logger).Log("msg", "can't load inputs", "error", err)

		exitcode = 1

		return
	}

	level.Info(logger).Log("msg", "inputs loaded",
		"nodes", len(fs.Nodes),
		"ways", len(fs.Ways),
		"tracks", len(fs.Tracks),
		"duration", time.Since(start),
	)

	storage, clean, err := bbolt.NewStorage(*dbPath, logger)
	if err != nil {
		level.Error(logger).Log("msg", "can't open storage", "error", err, "db_path", *dbPath)

		exitcode = 1

		return
	}

	defer clean()

	if err := storage.Import(fs, strings.Join(inputs, ","), version); err != nil {
		level.Error(logger).Log("msg", "can't import features", "error", err)

		exitcode = 1

		return
	}

	set := style.Default()
	if err := storage.StoreStyleSet(set); err != nil {
		level.Error(logger).Log("msg", "can't store style set", "error", err, "style", set.Name)

		exitcode = 1

		return
	}

	defaultStyle := set.Name
	if *styleFile != "" {
		f, err := os.Open(*styleFile)
		if err != nil {
			level.Error(logger).Log("msg", "can't open style file", "error", err, "path", *styleFile)

			exitcode = 1

			return
		}

		custom, err := style.LoadJSON(f)
		f.Close()
		if err != nil {
			level.Error(logger).Log("msg", "can't read style file", "error", err, "path", *styleFile)

			exitcode = 1

			return
		}

		if err := storage.StoreStyleSet(custom); err != nil {
			level.Error(logger).Log("msg", "can't store style set", "error", err, "style", custom.Name)

			exitcode = 1

			return
		}
		defaultStyle = custom.Name
	}

	if b, ok := fs.Bounds(); ok {
		if err := storage.StoreMapInfos(vectormap.MapInfosFromBounds(b, *maxZoom, defaultStyle)); err != nil {
			level.Error(logger).Log("msg", "can't store map infos", "error", err)

			exitcode = 1

			return
		}
	}

	infos, err := storage.LoadIndexInfos()
	if err != nil {
		level.Error(logger).Log("msg", "can't read back infos", "error", err)

		exitcode = 1

		return
	}

	level.Info(logger).Log("msg", "import done",
		"db_path", *dbPath,
		"node_count", infos.NodeCount,
		"way_count", infos.WayCount,
		"track_count", infos.TrackCount,
		"duration", time.Since(start),
	)
}
