package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the conversion pipeline.
type Metrics struct {
	SignalsTotal          *prometheus.CounterVec
	ConversionsTotal      *prometheus.CounterVec
	DedupSkipsTotal       prometheus.Counter
	ExtractionMissesTotal prometheus.Counter
}

// NewMetrics registers pipeline metrics once per process.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			SignalsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fxlens_pipeline_signals_total",
					Help: "Total number of DOM signals received, by kind",
				},
				[]string{"kind"},
			),
			ConversionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fxlens_pipeline_conversions_total",
					Help: "Total number of conversions finished, by outcome",
				},
				[]string{"outcome"}, // rendered, failed, stale
			),
			DedupSkipsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "fxlens_pipeline_dedup_skips_total",
					Help: "Total number of runs skipped because the text had not changed",
				},
			),
			ExtractionMissesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "fxlens_pipeline_extraction_misses_total",
					Help: "Total number of runs where no amount was found",
				},
			),
		}
	})
	return globalMetrics
}
