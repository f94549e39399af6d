/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics exposes Prometheus counters for proxy requests and operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "modelstore"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomePending = "pending"
)

// Collectors are exported for tests and custom registries; record through the
// functions below.
var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests dispatched to a proxy, by outcome",
		},
		[]string{"proxy", "action", "outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time a proxy took to settle a request",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"proxy", "action"},
	)

	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of operations that reached a terminal state",
		},
		[]string{"kind", "state"},
	)
)

// RecordRequest counts one dispatched request and observes its duration.
func RecordRequest(proxy, action, outcome string, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(proxy, action, outcome).Inc()
	RequestDuration.WithLabelValues(proxy, action).Observe(elapsed.Seconds())
}

// RecordOperation counts an operation reaching a terminal state.
func RecordOperation(kind, state string) {
	OperationsTotal.WithLabelValues(kind, state).Inc()
}
