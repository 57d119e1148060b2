// Package metrics registers the Prometheus collectors for the balance engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors shared by the cache and services.
type Metrics struct {
	CacheRequests      *prometheus.CounterVec // labels: scope, result
	CacheErrors        *prometheus.CounterVec // labels: scope, op
	Invalidations      prometheus.Counter
	ResidualImbalances prometheus.Counter
	ResidualAmount     prometheus.Histogram
	AggregateDuration  prometheus.Histogram
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide collectors registered on the default registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New registers a fresh set of collectors on reg. Tests pass their own
// prometheus.NewRegistry() to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "settleup_balance_cache_requests_total",
			Help: "Balance cache lookups by scope and result (hit, miss).",
		}, []string{"scope", "result"}),
		CacheErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "settleup_balance_cache_errors_total",
			Help: "Balance cache backend failures by scope and operation.",
		}, []string{"scope", "op"}),
		Invalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "settleup_balance_cache_invalidations_total",
			Help: "Invalidation calls issued after ledger writes.",
		}),
		ResidualImbalances: factory.NewCounter(prometheus.CounterOpts{
			Name: "settleup_simplify_residual_total",
			Help: "Debt simplifications that left an unmatched residual.",
		}),
		ResidualAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "settleup_simplify_residual_amount",
			Help:    "Size of residual left by debt simplification, in currency units.",
			Buckets: []float64{.01, .02, .05, .1, .5, 1, 5, 10, 100},
		}),
		AggregateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "settleup_aggregate_duration_seconds",
			Help:    "Time to load a group snapshot and aggregate balances.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
}
