package worker

import (
	"newscrawl/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcomes used as the "outcome" label of worker_cycle_runs_total.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeInterrupted = "interrupted"
)

// WorkerMetrics provides Prometheus metrics for the crawl worker.
// It embeds ConfigMetrics for configuration monitoring and adds scheduler
// metrics.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp
//   - worker_config_validation_errors_total{field}
//   - worker_config_fallbacks_total{field}
//   - worker_config_fallback_active
//
// Scheduler metrics:
//   - worker_cycle_runs_total{outcome}: success, failure or interrupted
//   - worker_cycle_duration_seconds: wall time of a cycle
//   - worker_cycle_skipped_ticks_total: ticks dropped because a cycle was running
//   - worker_cycle_last_success_timestamp: Unix time of the last successful cycle
//   - worker_cycle_articles_processed_total: new URLs processed across cycles
type WorkerMetrics struct {
	*config.ConfigMetrics

	CycleRunsTotal         *prometheus.CounterVec
	CycleDurationSeconds   prometheus.Histogram
	SkippedTicksTotal      prometheus.Counter
	LastSuccessTimestamp   prometheus.Gauge
	ArticlesProcessedTotal prometheus.Counter
}

// NewWorkerMetrics registers the worker metrics with the default registry.
// Call it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the worker metrics with reg. Tests pass a
// fresh prometheus.NewRegistry() so instances do not collide.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),

		CycleRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cycle_runs_total",
			Help: "Total number of crawl cycles by outcome (success/failure/interrupted)",
		}, []string{"outcome"}),

		CycleDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cycle_duration_seconds",
			Help:    "Duration of crawl cycles in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		SkippedTicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_cycle_skipped_ticks_total",
			Help: "Scheduler ticks dropped because a cycle was still running",
		}),

		LastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cycle_last_success_timestamp",
			Help: "Unix timestamp of the last successful crawl cycle",
		}),

		ArticlesProcessedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_cycle_articles_processed_total",
			Help: "Total number of new article URLs processed across cycles",
		}),
	}
}

func (m *WorkerMetrics) RecordCycle(outcome string, seconds float64) {
	m.CycleRunsTotal.WithLabelValues(outcome).Inc()
	m.CycleDurationSeconds.Observe(seconds)
}

func (m *WorkerMetrics) RecordSkippedTick() {
	m.SkippedTicksTotal.Inc()
}

func (m *WorkerMetrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}

// RecordArticlesProcessed adds n; negative values are ignored.
func (m *WorkerMetrics) RecordArticlesProcessed(n int) {
	if n > 0 {
		m.ArticlesProcessedTotal.Add(float64(n))
	}
}
