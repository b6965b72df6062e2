package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	linesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hookcode",
		Subsystem: "server",
		Name:      "lines_total",
		Help:      "Total log lines reduced, by outcome (applied or skipped).",
	}, []string{"outcome"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hookcode",
		Subsystem: "server",
		Name:      "events_total",
		Help:      "Total events applied to live timelines, by kind.",
	}, []string{"kind"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hookcode",
		Subsystem: "server",
		Name:      "ws_connections_active",
		Help:      "Number of active live WebSocket connections.",
	})

	runLoadDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hookcode",
		Subsystem: "server",
		Name:      "run_load_duration_seconds",
		Help:      "Time to read and reduce one run file, in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)
