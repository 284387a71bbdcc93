package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics for the read API
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// Render service metrics
var (
	// RenderRequestsTotal counts render calls by outcome:
	// ok, timeout, unreachable, status_4xx, status_5xx, rejected.
	RenderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_requests_total",
			Help: "Total number of render service requests by outcome",
		},
		[]string{"outcome"},
	)

	// RenderDuration uses wide buckets because the service waits for
	// client-side scripts before answering.
	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "render_request_duration_seconds",
			Help:    "Render service request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	RenderResponseSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "render_response_size_bytes",
			Help:    "Rendered HTML size in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB .. 16MiB
		},
	)
)

// Crawl metrics
var (
	CandidatesFoundTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_candidates_found_total",
			Help: "Total number of candidate links discovered on overview pages",
		},
		[]string{"category"},
	)

	DuplicatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_duplicates_total",
			Help: "Total number of candidate links skipped because they were already seen",
		},
		[]string{"category"},
	)

	RecordsPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_records_persisted_total",
			Help: "Total number of article records persisted by status",
		},
		[]string{"category", "status"},
	)

	// StorageErrorsTotal counts storage failures by operation:
	// append_record, mark_seen, append_run_log.
	StorageErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_storage_errors_total",
			Help: "Total number of storage errors by operation",
		},
		[]string{"operation"},
	)

	URLDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawl_url_duration_seconds",
			Help:    "Time to render, extract and persist one article",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)

	DedupSetSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawl_dedup_set_size",
			Help: "Number of URLs in the in-memory seen set",
		},
	)
)

// Database metrics
var (
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
