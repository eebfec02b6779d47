package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	extractionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comptaflow",
		Subsystem: "pipeline",
		Name:      "requests_total",
		Help:      "Extraction requests by terminal outcome.",
	}, []string{"outcome"})

	tierResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comptaflow",
		Subsystem: "pipeline",
		Name:      "tier_results_total",
		Help:      "Winning extraction tier per successful request.",
	}, []string{"method"})

	ocrRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comptaflow",
		Subsystem: "pipeline",
		Name:      "ocr_runs_total",
		Help:      "Optical recognition attempts by status.",
	}, []string{"status"})

	extractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "comptaflow",
		Subsystem: "pipeline",
		Name:      "duration_seconds",
		Help:      "End-to-end extraction latency.",
		Buckets:   prometheus.DefBuckets,
	})
)
