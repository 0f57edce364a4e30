package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coconutsplit_ledger_events_total",
		Help: "Applied ledger events by type.",
	}, []string{"type"})

	simplifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coconutsplit_simplify_duration_seconds",
		Help:    "Debt simplification latency.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
	})
)
