package rates

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for rate lookups.
type Metrics struct {
	LookupsTotal      *prometheus.CounterVec
	LiveFailuresTotal prometheus.Counter
	LiveFetchDuration prometheus.Histogram
}

// NewMetrics registers the rate metrics once per process.
//
// Metrics:
//   - fxlens_rate_lookups_total{source} - lookups answered, by source
//   - fxlens_rate_live_failures_total - live API failures
//   - fxlens_rate_live_fetch_seconds - live API latency
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			LookupsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fxlens_rate_lookups_total",
					Help: "Total number of rate lookups answered, by source",
				},
				[]string{"source"}, // live, cache, stored, fallback, identity
			),
			LiveFailuresTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "fxlens_rate_live_failures_total",
					Help: "Total number of failed live rate fetches",
				},
			),
			LiveFetchDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "fxlens_rate_live_fetch_seconds",
					Help:    "Latency of live rate fetches",
					Buckets: prometheus.DefBuckets,
				},
			),
		}
	})
	return globalMetrics
}
