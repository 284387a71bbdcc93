// Package db opens the crawl store database and manages its schema.
// PostgreSQL is used through pgx; SQLite through mattn/go-sqlite3.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"newscrawl/internal/observability/metrics"
)

// Backend selects the storage engine.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// DefaultSQLitePath is used when SQLITE_PATH is not set.
const DefaultSQLitePath = "data/crawl.db"

// ErrMissingDSN is returned when the postgres backend has no DATABASE_URL.
var ErrMissingDSN = errors.New("DATABASE_URL not set")

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,               // Maximum number of open connections
		MaxIdleConns:    10,               // Maximum number of idle connections
		ConnMaxLifetime: 1 * time.Hour,    // Maximum lifetime of a connection
		ConnMaxIdleTime: 30 * time.Minute, // Maximum idle time of a connection
	}
}

// Config selects the backend and its location.
type Config struct {
	Backend Backend
	// DSN is the postgres connection string or the SQLite file path.
	DSN  string
	Pool ConnectionConfig
}

// ConfigFromEnv reads STORE_BACKEND, DATABASE_URL, SQLITE_PATH and the pool
// settings. An unknown backend or a postgres backend without DSN is an error.
func ConfigFromEnv() (Config, error) {
	cfg := Config{Pool: getConnectionConfigFromEnv()}

	switch backend := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))); backend {
	case "", string(BackendPostgres):
		cfg.Backend = BackendPostgres
		cfg.DSN = os.Getenv("DATABASE_URL")
		if cfg.DSN == "" {
			return Config{}, ErrMissingDSN
		}
	case string(BackendSQLite):
		cfg.Backend = BackendSQLite
		cfg.DSN = os.Getenv("SQLITE_PATH")
		if cfg.DSN == "" {
			cfg.DSN = DefaultSQLitePath
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q: must be postgres or sqlite", backend)
	}
	return cfg, nil
}

func (c Config) driverName() string {
	if c.Backend == BackendSQLite {
		return "sqlite3"
	}
	return "pgx"
}

// dataSourceName turns a SQLite path into a DSN with WAL and a busy timeout.
func (c Config) dataSourceName() string {
	if c.Backend != BackendSQLite {
		return c.DSN
	}
	if strings.HasPrefix(c.DSN, "file:") || c.DSN == ":memory:" {
		return c.DSN
	}
	return "file:" + c.DSN + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

// Open creates and configures a connection pool and verifies it with a ping.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Backend == BackendSQLite && cfg.DSN != ":memory:" && !strings.HasPrefix(cfg.DSN, "file:") {
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
	}

	db, err := sql.Open(cfg.driverName(), cfg.dataSourceName())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Backend, err)
	}

	pool := cfg.Pool
	if cfg.Backend == BackendSQLite {
		// SQLite allows a single writer.
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.String("backend", string(cfg.Backend)),
		slog.Int("max_open_conns", pool.MaxOpenConns),
		slog.Int("max_idle_conns", pool.MaxIdleConns),
		slog.Duration("conn_max_lifetime", pool.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", pool.ConnMaxIdleTime))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Backend, err)
	}

	slog.Info("database connection established successfully")
	return db, nil
}

// RecordPoolStats publishes the pool's open and idle connection counts.
func RecordPoolStats(db *sql.DB) {
	stats := db.Stats()
	metrics.UpdateDBConnectionStats(stats.OpenConnections, stats.Idle)
}

// getConnectionConfigFromEnv reads connection pool configuration from environment variables.
// Falls back to default values if not set.
func getConnectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()

	if maxOpen := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpen != "" {
		if val, err := strconv.Atoi(maxOpen); err == nil && val > 0 {
			cfg.MaxOpenConns = val
		}
	}

	if maxIdle := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdle != "" {
		if val, err := strconv.Atoi(maxIdle); err == nil && val > 0 {
			cfg.MaxIdleConns = val
		}
	}

	if lifetime := os.Getenv("DB_CONN_MAX_LIFETIME"); lifetime != "" {
		if val, err := time.ParseDuration(lifetime); err == nil && val > 0 {
			cfg.ConnMaxLifetime = val
		}
	}

	if idleTime := os.Getenv("DB_CONN_MAX_IDLE_TIME"); idleTime != "" {
		if val, err := time.ParseDuration(idleTime); err == nil && val > 0 {
			cfg.ConnMaxIdleTime = val
		}
	}

	return cfg
}
