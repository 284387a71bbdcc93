package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newscrawl/internal/config"
	pgRepo "newscrawl/internal/infra/adapter/persistence/postgres"
	sqliteRepo "newscrawl/internal/infra/adapter/persistence/sqlite"
	"newscrawl/internal/infra/db"
	"newscrawl/internal/infra/render"
	"newscrawl/internal/infra/scraper"
	workerPkg "newscrawl/internal/infra/worker"
	"newscrawl/internal/observability/logging"
	"newscrawl/internal/observability/tracing"
	"newscrawl/internal/repository"
	"newscrawl/internal/resilience/retry"
	"newscrawl/internal/usecase/crawl"
	"newscrawl/internal/usecase/dedup"
)

const defaultCrawlConfigPath = "configs/crawl.yaml"

// shutdownTimeout bounds how long a running cycle may take to flush after a
// signal before the process exits anyway.
const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

// run wires the worker and blocks until shutdown. It returns the exit code so
// deferred cleanup has finished before the process exits.
func run() int {
	once := flag.Bool("once", false, "run a single crawl cycle and exit")
	flag.Parse()

	logger := initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.InitProvider(tracing.SampleRatioFromEnv())
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	crawlConfig, err := loadCrawlConfig(logger)
	if err != nil {
		logger.Error("failed to load crawl configuration", slog.Any("error", err))
		return 1
	}

	dbConfig, database, err := initDatabase(ctx, logger)
	if err != nil {
		logger.Error("failed to initialize database",
			slog.String("backend", string(dbConfig.Backend)),
			slog.String("error", logging.SanitizeError(err)))
		return 1
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		return 1
	}
	logger.Info("worker configuration loaded",
		slog.Duration("interval", workerConfig.Interval),
		slog.String("schedule", workerConfig.Schedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("crawl_timeout", workerConfig.CrawlTimeout),
		slog.Int("concurrency", workerConfig.Concurrency),
		slog.Bool("run_on_start", workerConfig.RunOnStart),
		slog.Int("max_articles_per_target", workerConfig.MaxArticlesPerTarget),
		slog.Int("health_port", workerConfig.HealthPort))

	svc, err := setupCrawlService(ctx, logger, dbConfig.Backend, database, crawlConfig, workerConfig)
	if err != nil {
		logger.Error("failed to set up crawl service", slog.String("error", logging.SanitizeError(err)))
		return 1
	}

	scheduler, err := workerPkg.NewScheduler(svc, *workerConfig, workerMetrics, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		return 1
	}

	if *once {
		return runOnce(ctx, logger, scheduler)
	}

	// Start metrics HTTP server
	startMetricsServer(ctx, logger, workerConfig.MetricsPort, database)

	// Start health check server
	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger, scheduler)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	scheduler.OnCycle(func(c workerPkg.CycleSummary) {
		db.RecordPoolStats(database)
		logger.Info("crawl cycle finished",
			slog.String("cycle_id", c.CycleID),
			slog.String("outcome", c.Outcome),
			slog.Float64("duration_seconds", c.DurationSeconds),
			slog.Int("candidates", c.Candidates),
			slog.Int("duplicates", c.Duplicates),
			slog.Int("new_processed", c.NewProcessed),
			slog.Int("failures", c.Failures))
	})

	scheduler.Start(ctx)
	healthServer.SetReady(true)

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Error("scheduler did not stop cleanly", slog.Any("error", err))
	}
	logger.Info("worker stopped")
	return 0
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// loadCrawlConfig reads the YAML crawl configuration.
func loadCrawlConfig(logger *slog.Logger) (*config.CrawlConfig, error) {
	path := os.Getenv("CRAWL_CONFIG")
	if path == "" {
		path = defaultCrawlConfigPath
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Warn("crawl config file not found, using built-in defaults", slog.String("path", path))
			path = ""
		}
	}

	cfg, err := config.LoadCrawlConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", path, err)
	}
	for _, w := range cfg.Warnings {
		logger.Warn("crawl configuration warning", slog.String("warning", w))
	}

	categories := make([]string, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		categories = append(categories, t.Category)
	}
	logger.Info("crawl configuration loaded",
		slog.String("base_url", cfg.Site.BaseURL),
		slog.Any("categories", categories),
		slog.String("render_endpoint", cfg.Render.Endpoint),
		slog.Bool("readability_fallback", cfg.Extract.ReadabilityFallback))
	return cfg, nil
}

// initDatabase opens the configured store and applies the schema.
func initDatabase(ctx context.Context, logger *slog.Logger) (db.Config, *sql.DB, error) {
	cfg, err := db.ConfigFromEnv()
	if err != nil {
		return cfg, nil, fmt.Errorf("invalid storage configuration: %w", err)
	}

	var database *sql.DB
	err = retry.WithBackoff(ctx, retry.DBConfig(), func() error {
		var openErr error
		database, openErr = db.Open(ctx, cfg)
		return openErr
	})
	if err != nil {
		return cfg, nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.MigrateUp(ctx, database, cfg.Backend); err != nil {
		_ = database.Close()
		return cfg, nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database ready", slog.String("backend", string(cfg.Backend)))
	return cfg, database, nil
}

// newRepositories returns the record, seen and run log repositories of backend.
func newRepositories(backend db.Backend, database *sql.DB) (repository.RecordRepository, repository.SeenRepository, repository.RunLogRepository) {
	if backend == db.BackendSQLite {
		return sqliteRepo.NewRecordRepo(database), sqliteRepo.NewSeenRepo(database), sqliteRepo.NewRunLogRepo(database)
	}
	return pgRepo.NewRecordRepo(database), pgRepo.NewSeenRepo(database), pgRepo.NewRunLogRepo(database)
}

// setupCrawlService wires the render client, extractors, dedup store and
// repositories into a crawl service.
func setupCrawlService(
	ctx context.Context,
	logger *slog.Logger,
	backend db.Backend,
	database *sql.DB,
	crawlConfig *config.CrawlConfig,
	workerConfig *workerPkg.WorkerConfig,
) (*crawl.Service, error) {
	records, seen, runLog := newRepositories(backend, database)

	store, err := dedup.Open(ctx, seen)
	if err != nil {
		return nil, fmt.Errorf("load seen set: %w", err)
	}
	logger.Info("seen set loaded", slog.Int("urls", store.Len()))

	renderer, err := render.NewClient(crawlConfig.Render.Config)
	if err != nil {
		return nil, fmt.Errorf("create render client: %w", err)
	}

	links, err := scraper.NewLinkExtractor(crawlConfig.Layout, crawlConfig.Site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("create link extractor: %w", err)
	}

	var contentOpts []scraper.ContentOption
	if crawlConfig.Extract.ReadabilityFallback {
		contentOpts = append(contentOpts, scraper.WithReadabilityFallback())
	}
	articles := scraper.NewContentExtractor(crawlConfig.Layout, contentOpts...)

	svc, err := crawl.NewService(renderer, links, articles, store, records, runLog, crawl.Config{
		Targets:              crawlConfig.CrawlTargets(),
		Concurrency:          workerConfig.Concurrency,
		OverviewWait:         crawlConfig.Render.OverviewWait,
		ArticleWait:          crawlConfig.Render.ArticleWait,
		MaxArticlesPerTarget: workerConfig.MaxArticlesPerTarget,
		Retry:                retry.RenderConfig(),
	})
	if err != nil {
		return nil, fmt.Errorf("create crawl service: %w", err)
	}
	return svc, nil
}

// runOnce runs a single cycle under the crawl timeout. It returns 1 when the
// run log could not be written.
func runOnce(ctx context.Context, logger *slog.Logger, scheduler *workerPkg.Scheduler) int {
	summary, err := scheduler.RunOnce(ctx)
	logger.Info("crawl cycle finished",
		slog.String("cycle_id", summary.CycleID),
		slog.String("outcome", summary.Outcome),
		slog.Int("new_processed", summary.NewProcessed),
		slog.Int("failures", summary.Failures))
	if err != nil {
		logger.Error("crawl cycle failed", slog.String("error", logging.SanitizeError(err)))
		return 1
	}
	return 0
}
