package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newscrawl/internal/pkg/config"
)

// WorkerConfig holds the runtime knobs of the crawl worker.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// Every field has a default and a validation rule so the worker can start
// even when the environment is partly wrong.
type WorkerConfig struct {
	// Interval is the period between cycle starts.
	// Range: 1m-24h
	// Default: 30 minutes
	Interval time.Duration

	// Schedule is an optional cron expression ("minute hour dom month dow" or
	// a descriptor such as "@hourly"). When set it replaces Interval.
	// Default: "" (use Interval)
	Schedule string

	// Timezone is the IANA location used to evaluate Schedule.
	// Default: "UTC"
	Timezone string

	// CrawlTimeout bounds a single cycle. A cycle that exceeds it is
	// cancelled; in-flight URLs still finish their persist and mark steps.
	// Range: 1m-4h
	// Default: 25 minutes
	CrawlTimeout time.Duration

	// Concurrency is the number of URLs processed in parallel per target.
	// Range: 1-32
	// Default: 4
	Concurrency int

	// RunOnStart triggers one cycle immediately after the scheduler starts.
	// Default: true
	RunOnStart bool

	// MaxArticlesPerTarget caps new URLs per target and cycle. 0 disables
	// the cap.
	// Range: 0-1000
	// Default: 0
	MaxArticlesPerTarget int

	// HealthPort is the port of the liveness/readiness server.
	// Range: 1024-65535
	// Default: 9091
	HealthPort int

	// MetricsPort is the port of the Prometheus /metrics server.
	// Range: 1024-65535
	// Default: 9090
	MetricsPort int
}

// DefaultConfig returns a WorkerConfig with default values. Each call
// returns a fresh value.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		Interval:             30 * time.Minute,
		Schedule:             "",
		Timezone:             "UTC",
		CrawlTimeout:         25 * time.Minute,
		Concurrency:          4,
		RunOnStart:           true,
		MaxArticlesPerTarget: 0,
		HealthPort:           9091,
		MetricsPort:          9090,
	}
}

func validateInterval(d time.Duration) error {
	return config.ValidateDuration(d, time.Minute, 24*time.Hour)
}

func validateCrawlTimeout(d time.Duration) error {
	return config.ValidateDuration(d, time.Minute, 4*time.Hour)
}

func validateConcurrency(v int) error {
	return config.ValidateIntRange(v, 1, 32)
}

func validateMaxArticles(v int) error {
	return config.ValidateIntRange(v, 0, 1000)
}

func validatePort(v int) error {
	return config.ValidateIntRange(v, 1024, 65535)
}

func validateSchedule(s string) error {
	if s == "" {
		return nil
	}
	return config.ValidateCronSchedule(s)
}

// Validate checks every field and returns all failures joined together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := validateInterval(c.Interval); err != nil {
		errs = append(errs, fmt.Errorf("interval: %w", err))
	}
	if err := validateSchedule(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validateCrawlTimeout(c.CrawlTimeout); err != nil {
		errs = append(errs, fmt.Errorf("crawl timeout: %w", err))
	}
	if err := validateConcurrency(c.Concurrency); err != nil {
		errs = append(errs, fmt.Errorf("concurrency: %w", err))
	}
	if err := validateMaxArticles(c.MaxArticlesPerTarget); err != nil {
		errs = append(errs, fmt.Errorf("max articles per target: %w", err))
	}
	if err := validatePort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := validatePort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ (both %d)", c.HealthPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// LoadConfigFromEnv loads the worker configuration from the environment.
//
// Loading is fail-open: a value that cannot be parsed or does not validate is
// replaced by its default, a warning is logged and the fallback is counted in
// the worker_config_* metrics. The returned error is always nil; the signature
// leaves room for fail-closed fields.
//
// Environment variables:
//   - CRAWL_INTERVAL: duration (default: 30m)
//   - CRAWL_SCHEDULE: cron expression (default: unset)
//   - WORKER_TIMEZONE: IANA timezone (default: UTC)
//   - CRAWL_TIMEOUT: duration (default: 25m)
//   - CRAWL_CONCURRENCY: integer 1-32 (default: 4)
//   - CRAWL_RUN_ON_START: boolean (default: true)
//   - CRAWL_MAX_ARTICLES_PER_TARGET: integer 0-1000 (default: 0)
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default: 9091)
//   - METRICS_PORT: integer 1024-65535 (default: 9090)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field, metricField string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(metricField)
		metrics.RecordFallback(metricField, "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvDuration("CRAWL_INTERVAL", cfg.Interval, validateInterval)
	cfg.Interval = result.Value.(time.Duration)
	apply("Interval", "interval", result)

	result = config.LoadEnvWithFallback("CRAWL_SCHEDULE", cfg.Schedule, validateSchedule)
	cfg.Schedule = result.Value.(string)
	apply("Schedule", "schedule", result)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	apply("Timezone", "timezone", result)

	result = config.LoadEnvDuration("CRAWL_TIMEOUT", cfg.CrawlTimeout, validateCrawlTimeout)
	cfg.CrawlTimeout = result.Value.(time.Duration)
	apply("CrawlTimeout", "crawl_timeout", result)

	result = config.LoadEnvInt("CRAWL_CONCURRENCY", cfg.Concurrency, validateConcurrency)
	cfg.Concurrency = result.Value.(int)
	apply("Concurrency", "concurrency", result)

	result = config.LoadEnvBool("CRAWL_RUN_ON_START", cfg.RunOnStart)
	cfg.RunOnStart = result.Value.(bool)
	apply("RunOnStart", "run_on_start", result)

	result = config.LoadEnvInt("CRAWL_MAX_ARTICLES_PER_TARGET", cfg.MaxArticlesPerTarget, validateMaxArticles)
	cfg.MaxArticlesPerTarget = result.Value.(int)
	apply("MaxArticlesPerTarget", "max_articles_per_target", result)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, validatePort)
	cfg.HealthPort = result.Value.(int)
	apply("HealthPort", "health_port", result)

	result = config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, validatePort)
	cfg.MetricsPort = result.Value.(int)
	apply("MetricsPort", "metrics_port", result)

	if cfg.HealthPort == cfg.MetricsPort {
		defaults := DefaultConfig()
		logger.Warn("Configuration fallback applied",
			slog.String("field", "MetricsPort"),
			slog.String("warning", fmt.Sprintf("METRICS_PORT collides with WORKER_HEALTH_PORT (%d), using defaults", cfg.HealthPort)))
		cfg.HealthPort = defaults.HealthPort
		cfg.MetricsPort = defaults.MetricsPort
		fallbackApplied = true
		metrics.RecordValidationError("metrics_port")
		metrics.RecordFallback("metrics_port", "default")
	}

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
