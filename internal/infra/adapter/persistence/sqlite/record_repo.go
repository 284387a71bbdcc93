// Package sqlite provides SQLite implementations of the repository interfaces.
// It backs single-node deployments where running PostgreSQL is not worth it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newscrawl/internal/domain/entity"
	"newscrawl/internal/observability/metrics"
	"newscrawl/internal/repository"
)

const defaultListLimit = 100

// RecordRepo implements the RecordRepository interface using SQLite.
type RecordRepo struct{ db *sql.DB }

// NewRecordRepo creates a new SQLite-backed record repository.
func NewRecordRepo(db *sql.DB) repository.RecordRepository {
	return &RecordRepo{db: db}
}

// Append inserts the record unless its URL is already stored.
func (repo *RecordRepo) Append(ctx context.Context, record *entity.ArticleRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	const query = `
INSERT OR IGNORE INTO article_records (url, title, body, category, status, scraped_at)
VALUES (?, ?, ?, ?, ?, ?)
`

	start := time.Now()
	_, err := repo.db.ExecContext(ctx, query,
		record.URL, record.Title, record.Body,
		record.Category, string(record.Status), record.ScrapedAt.UTC())
	metrics.RecordDBQuery("append_record", time.Since(start))
	if err != nil {
		return fmt.Errorf("Append: ExecContext: %w", err)
	}
	return nil
}

// GetByURL returns the record for url, or nil when none exists.
func (repo *RecordRepo) GetByURL(ctx context.Context, url string) (*entity.ArticleRecord, error) {
	const query = `
SELECT url, title, body, category, status, scraped_at
FROM article_records
WHERE url = ?
LIMIT 1
`

	var r entity.ArticleRecord
	var status string
	err := repo.db.QueryRowContext(ctx, query, url).
		Scan(&r.URL, &r.Title, &r.Body, &r.Category, &status, &r.ScrapedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByURL: QueryRowContext: %w", err)
	}
	r.Status = entity.RecordStatus(status)
	return &r, nil
}

// ListByCategory retrieves records newest first. An empty category lists all.
func (repo *RecordRepo) ListByCategory(ctx context.Context, category string, limit int) ([]*entity.ArticleRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	start := time.Now()
	if category == "" {
		const query = `
SELECT url, title, body, category, status, scraped_at
FROM article_records
ORDER BY scraped_at DESC, url
LIMIT ?
`
		rows, err = repo.db.QueryContext(ctx, query, limit)
	} else {
		const query = `
SELECT url, title, body, category, status, scraped_at
FROM article_records
WHERE category = ?
ORDER BY scraped_at DESC, url
LIMIT ?
`
		rows, err = repo.db.QueryContext(ctx, query, category, limit)
	}
	metrics.RecordDBQuery("list_records", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("ListByCategory: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*entity.ArticleRecord, 0, limit)
	for rows.Next() {
		var r entity.ArticleRecord
		var status string
		if err := rows.Scan(&r.URL, &r.Title, &r.Body, &r.Category, &status, &r.ScrapedAt); err != nil {
			return nil, fmt.Errorf("ListByCategory: Scan: %w", err)
		}
		r.Status = entity.RecordStatus(status)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByCategory: rows.Err: %w", err)
	}

	return records, nil
}
