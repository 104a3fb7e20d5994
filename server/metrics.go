package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	errorCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maprender_server",
		Name:      "error_total",
		Help:      "The total number of errors occurring",
	})

	renderHitCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maprender_server",
		Name:      "render_cache_hit_total",
		Help:      "Rendered images cache hits",
	})

	renderMissCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maprender_server",
		Name:      "render_cache_miss_total",
		Help:      "Rendered images cache misses",
	})

	tileStoreHitCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maprender_server",
		Name:      "tile_store_hit_total",
		Help:      "Tiles served from the pre rendered store",
	})

	exportCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maprender_server",
		Name:      "export_total",
		Help:      "Background exports started",
	})

	renderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "maprender_server",
		Name:      "render_duration_seconds",
		Help:      "Time spent computing and encoding a frame",
		Buckets:   prometheus.DefBuckets,
	}, []string{"format"})
)
