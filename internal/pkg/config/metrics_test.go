package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestConfigMetrics_RecordsPerField(t *testing.T) {
	m := NewConfigMetricsWith(prometheus.NewRegistry(), "crawler")

	m.RecordValidationError("crawl_interval")
	m.RecordValidationError("crawl_interval")
	m.RecordFallback("crawl_interval", "default")
	m.RecordFallback("crawl_concurrency", "default")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("crawl_interval")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("crawl_interval")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("crawl_concurrency")))
}

func TestConfigMetrics_FallbackActiveToggle(t *testing.T) {
	m := NewConfigMetricsWith(prometheus.NewRegistry(), "crawler")

	m.SetFallbackActive(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))

	m.SetFallbackActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbackActive))
}

func TestConfigMetrics_LoadTimestamp(t *testing.T) {
	m := NewConfigMetricsWith(prometheus.NewRegistry(), "crawler")
	m.RecordLoadTimestamp()
	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), 0.0)
}

func TestConfigMetrics_MetricNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConfigMetricsWith(reg, "api")
	m.RecordValidationError("api_port")

	count, err := testutil.GatherAndCount(reg, "api_config_validation_errors_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConfigMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewConfigMetricsWith(reg, "dup")
	assert.Panics(t, func() { NewConfigMetricsWith(reg, "dup") })
}
