package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	versionGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "maprenderd",
		Name:      "version",
		Help:      "App version.",
	}, []string{"version"})

	dataVersionGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "maprenderd",
		Name:      "dataset_version",
		Help:      "Dataset version.",
	}, []string{"version"})

	featuresGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "maprenderd",
		Name:      "indexed_features",
		Help:      "Features held by the culling index.",
	}, []string{"strategy"})
)
