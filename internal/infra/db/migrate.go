package db

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`
CREATE TABLE IF NOT EXISTS article_records (
    url        TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    body       TEXT NOT NULL DEFAULT '',
    category   TEXT NOT NULL,
    status     VARCHAR(10) NOT NULL CHECK (status IN ('ok', 'empty', 'failed')),
    scraped_at TIMESTAMPTZ NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS seen_urls (
    url     TEXT PRIMARY KEY,
    seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`
CREATE TABLE IF NOT EXISTS crawl_runs (
    id               BIGSERIAL PRIMARY KEY,
    cycle_id         TEXT NOT NULL,
    cycle_start      TIMESTAMPTZ NOT NULL,
    category         TEXT NOT NULL,
    candidates_found INTEGER NOT NULL DEFAULT 0,
    duplicates       INTEGER NOT NULL DEFAULT 0,
    new_processed    INTEGER NOT NULL DEFAULT 0,
    failures         INTEGER NOT NULL DEFAULT 0,
    overview_error   TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_article_records_category_scraped_at ON article_records(category, scraped_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_article_records_scraped_at ON article_records(scraped_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_crawl_runs_cycle_start ON crawl_runs(cycle_start DESC)`,
}

var sqliteSchema = []string{
	`
CREATE TABLE IF NOT EXISTS article_records (
    url        TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    body       TEXT NOT NULL DEFAULT '',
    category   TEXT NOT NULL,
    status     TEXT NOT NULL CHECK (status IN ('ok', 'empty', 'failed')),
    scraped_at TIMESTAMP NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS seen_urls (
    url     TEXT PRIMARY KEY,
    seen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`
CREATE TABLE IF NOT EXISTS crawl_runs (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id         TEXT NOT NULL,
    cycle_start      TIMESTAMP NOT NULL,
    category         TEXT NOT NULL,
    candidates_found INTEGER NOT NULL DEFAULT 0,
    duplicates       INTEGER NOT NULL DEFAULT 0,
    new_processed    INTEGER NOT NULL DEFAULT 0,
    failures         INTEGER NOT NULL DEFAULT 0,
    overview_error   TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_article_records_category_scraped_at ON article_records(category, scraped_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_article_records_scraped_at ON article_records(scraped_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_crawl_runs_cycle_start ON crawl_runs(cycle_start DESC)`,
}

// MigrateUp creates the record, seen-URL and run log tables. It is safe to
// run on every start.
func MigrateUp(ctx context.Context, db *sql.DB, backend Backend) error {
	schema := postgresSchema
	if backend == BackendSQLite {
		schema = sqliteSchema
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}
	return nil
}

// MigrateDown drops every crawl table.
// Use with caution: this will delete all data, including the seen set.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS crawl_runs`,
		`DROP TABLE IF EXISTS seen_urls`,
		`DROP TABLE IF EXISTS article_records`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	}
	return nil
}
