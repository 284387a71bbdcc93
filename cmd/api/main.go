package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	hhttp "newscrawl/internal/handler/http"
	hrecord "newscrawl/internal/handler/http/record"
	"newscrawl/internal/handler/http/requestid"
	pgRepo "newscrawl/internal/infra/adapter/persistence/postgres"
	sqliteRepo "newscrawl/internal/infra/adapter/persistence/sqlite"
	"newscrawl/internal/infra/db"
	"newscrawl/internal/observability/logging"
	"newscrawl/internal/observability/tracing"
	"newscrawl/internal/pkg/config"
	recordUC "newscrawl/internal/usecase/record"
)

const (
	defaultPort           = 8080
	defaultRequestTimeout = 10 * time.Second
	// defaultStaleAfter is twice the default crawl interval.
	defaultStaleAfter = time.Hour
)

func main() {
	logger := initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.InitProvider(tracing.SampleRatioFromEnv())
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	dbConfig, database := initDatabase(ctx, logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	version := getVersion()
	handler := setupServer(logger, dbConfig.Backend, database, version)

	runServer(ctx, logger, handler, version)
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(ctx context.Context, logger *slog.Logger) (db.Config, *sql.DB) {
	cfg, err := db.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid storage configuration", slog.Any("error", err))
		os.Exit(1)
	}
	database, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", logging.SanitizeError(err)))
		os.Exit(1)
	}
	if err := db.MigrateUp(ctx, database, cfg.Backend); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		_ = database.Close()
		os.Exit(1)
	}
	return cfg, database
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// setupServer registers the routes and wraps them in the middleware chain.
func setupServer(logger *slog.Logger, backend db.Backend, database *sql.DB, version string) http.Handler {
	svc := &recordUC.Service{}
	if backend == db.BackendSQLite {
		svc.Records = sqliteRepo.NewRecordRepo(database)
		svc.Seen = sqliteRepo.NewSeenRepo(database)
		svc.Runs = sqliteRepo.NewRunLogRepo(database)
	} else {
		svc.Records = pgRepo.NewRecordRepo(database)
		svc.Seen = pgRepo.NewSeenRepo(database)
		svc.Runs = pgRepo.NewRunLogRepo(database)
	}

	staleAfter := loadDuration(logger, "HEALTH_STALE_AFTER", defaultStaleAfter)
	requestTimeout := loadDuration(logger, "API_REQUEST_TIMEOUT", defaultRequestTimeout)

	mux := http.NewServeMux()
	hrecord.Register(mux, svc, logger)
	mux.Handle("GET /health", &hhttp.HealthHandler{
		DB:         database,
		Runs:       svc.Runs,
		Version:    version,
		StaleAfter: staleAfter,
	})
	mux.Handle("GET /health/ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("GET /health/live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	// Request ID → Tracing → Logging → Recovery → Input limits → Timeout → Metrics
	return hhttp.Chain(hhttp.Metrics(mux),
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
		hhttp.Recover(logger),
		hhttp.InputValidation(),
		hhttp.Timeout(requestTimeout),
	)
}

func loadDuration(logger *slog.Logger, key string, def time.Duration) time.Duration {
	result := config.LoadEnvDuration(key, def, config.ValidatePositiveDuration)
	for _, w := range result.Warnings {
		logger.Warn("Configuration fallback applied", slog.String("field", key), slog.String("warning", w))
	}
	return result.Value.(time.Duration)
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, logger *slog.Logger, handler http.Handler, version string) {
	port := defaultPort
	portResult := config.LoadEnvInt("API_PORT", defaultPort, func(p int) error {
		return config.ValidateIntRange(p, 1, 65535)
	})
	for _, w := range portResult.Warnings {
		logger.Warn("Configuration fallback applied", slog.String("field", "API_PORT"), slog.String("warning", w))
	}
	if p, ok := portResult.Value.(int); ok {
		port = p
	}
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
