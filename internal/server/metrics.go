package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	// queries counts path queries by result: found, unreachable, invalid, error.
	queries *prometheus.CounterVec
	// duration tracks search latency.
	duration prometheus.Histogram
	// expanded tracks node expansions per successful query.
	expanded prometheus.Histogram
	// steps counts stepper advances served over /next and /ws.
	steps prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridastar_path_queries_total",
			Help: "Total path queries by result",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridastar_path_query_duration_seconds",
			Help:    "Path query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
		}),
		expanded: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridastar_path_query_expanded_nodes",
			Help:    "Nodes expanded per path query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		steps: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridastar_stepper_steps_total",
			Help: "Stepper advances served to visualisation clients",
		}),
	}
}
