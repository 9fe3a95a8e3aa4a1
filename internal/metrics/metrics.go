// Package metrics exposes Prometheus counters and histograms for the
// titling pipeline, served at /metrics by the HTTP control surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SegmentsDispatched counts show/clear commands sent to the downstream dispatcher.
	SegmentsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "op47_segments_dispatched_total",
		Help: "Total number of segment show/clear commands dispatched.",
	}, []string{"kind"})

	// EncodeDuration observes the time to build one subtitle page's packet set.
	EncodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "op47_encode_duration_seconds",
		Help:    "Time to build one subtitle page's OP-47 packet set.",
		Buckets: prometheus.DefBuckets,
	})

	// DispatcherReconnects counts downstream TCP reconnect attempts.
	DispatcherReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "op47_dispatcher_reconnects_total",
		Help: "Total number of downstream dispatcher reconnect attempts.",
	})

	// SchedulerTickDuration observes the wall-clock cost of one scheduler tick.
	SchedulerTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "op47_scheduler_tick_duration_seconds",
		Help:    "Time spent evaluating one scheduler tick.",
		Buckets: prometheus.DefBuckets,
	})
)
