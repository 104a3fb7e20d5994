package main

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	stdlog "log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/namsral/flag"
	"github.com/rcrowley/go-metrics"

	"github.com/akhenakh/vectormap/loglevel"
)

const appName = "maploadtester"

var (
	logLevel     = flag.String("logLevel", "INFO", "DEBUG|INFO|WARN|ERROR")
	testDuration = flag.Duration("testDuration", 0, "performs the test for duration, 0 = infinite")
	renderURI    = flag.String("renderURI", "http://localhost:8080", "maprenderd HTTP API URI")
	format       = flag.String("format", "svg", "svg|png")
	clients      = flag.Int("clients", 4, "concurrent clients")
	minZoom      = flag.Float64("minZoom", 12, "min zoom requested")
	maxZoom      = flag.Float64("maxZoom", 17, "max zoom requested")
	width        = flag.Int("width", 512, "requested width")
	height       = flag.Int("height", 512, "requested height")
	latMin       = flag.Float64("latMin", 48.80, "Lat min")
	lngMin       = flag.Float64("lngMin", 2.25, "Lng min")
	latMax       = flag.Float64("latMax", 48.90, "Lat max")
	lngMax       = flag.Float64("lngMax", 2.42, "Lng max")
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

	rand.Seed(time.Now().UnixNano())

	base, err := url.Parse(*renderURI)
	if err != nil {
		level.Error(logger).Log("msg", "invalid render URI", "error", err)

		exitcode = 1

		return
	}
	base.Path = "/api/render/" + *format

	client := &http.Client{Timeout: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *testDuration > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, *testDuration)
		defer tcancel()
	}

	// catch termination
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(interrupt)

	tm := metrics.NewTimer()
	sizes := metrics.NewHistogram(metrics.NewUniformSample(1028))
	errs := metrics.NewCounter()

	var wg sync.WaitGroup

	for i := 0; i < *clients; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for ctx.Err() == nil {
				lat := *latMin + rand.Float64()*(*latMax-*latMin)     // nolint: gosec
				lng := *lngMin + rand.Float64()*(*lngMax-*lngMin)     // nolint: gosec
				zoom := *minZoom + rand.Float64()*(*maxZoom-*minZoom) // nolint: gosec

				u := *base
				q := url.Values{}
				q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
				q.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))
				q.Set("zoom", strconv.FormatFloat(zoom, 'f', 2, 64))
				q.Set("width", strconv.Itoa(*width))
				q.Set("height", strconv.Itoa(*height))
				u.RawQuery = q.Encode()

				t := time.Now()
				n, err := fetch(ctx, client, u.String())
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					errs.Inc(1)
					level.Error(logger).Log("msg", "error with request", "error", err)
					cancel()

					return
				}

				tm.UpdateSince(t)
				sizes.Update(n)

				level.Debug(logger).Log(
					"msg", "rendered",
					"bytes", n,
					"lat", lat,
					"lng", lng,
					"zoom", zoom,
				)
			}
		}()
	}

	select {
	case <-interrupt:
		cancel()

		break
	case <-ctx.Done():
		break
	}

	wg.Wait()

	msg := fmt.Sprintf("count %d rate mean %.0f/s rate1 %.0f/s 99p %.0f mean size %.0f errors %d\n",
		tm.Count(), tm.RateMean(), tm.Rate1(), tm.Percentile(99.0), sizes.Mean(), errs.Count())
	level.Info(logger).Log("msg", msg)

	if errs.Count() > 0 {
		exitcode = 1
	}
}

func fetch(ctx context.Context, client *http.Client, u string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("status %d: %s", resp.StatusCode, b)
	}

	return io.Copy(ioutil.Discard, resp.Body)
}
