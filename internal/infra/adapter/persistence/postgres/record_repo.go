// Package postgres provides PostgreSQL implementations of the repository interfaces.
package postgres

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

type RecordRepo struct {
	db *sql.DB
}

func NewRecordRepo(db *sql.DB) repository.RecordRepository {
	return &RecordRepo{db: db}
}

// Append inserts the record unless its URL is already stored.
func (repo *RecordRepo) Append(ctx context.Context, record *entity.ArticleRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	const query = `
INSERT INTO article_records (url, title, body, category, status, scraped_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (url) DO NOTHING`

	start := time.Now()
	_, err := repo.db.ExecContext(ctx, query,
		record.URL, record.Title, record.Body,
		record.Category, string(record.Status), record.ScrapedAt)
	metrics.RecordDBQuery("append_record", time.Since(start))
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (repo *RecordRepo) GetByURL(ctx context.Context, url string) (*entity.ArticleRecord, error) {
	const query = `
SELECT url, title, body, category, status, scraped_at
FROM article_records
WHERE url = $1
LIMIT 1`

	var r entity.ArticleRecord
	var status string
	err := repo.db.QueryRowContext(ctx, query, url).
		Scan(&r.URL, &r.Title, &r.Body, &r.Category, &status, &r.ScrapedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByURL: %w", err)
	}
	r.Status = entity.RecordStatus(status)
	return &r, nil
}

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
LIMIT $1`
		rows, err = repo.db.QueryContext(ctx, query, limit)
	} else {
		const query = `
SELECT url, title, body, category, status, scraped_at
FROM article_records
WHERE category = $1
ORDER BY scraped_at DESC, url
LIMIT $2`
		rows, err = repo.db.QueryContext(ctx, query, category, limit)
	}
	metrics.RecordDBQuery("list_records", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("ListByCategory: %w", err)
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
	return records, rows.Err()
}
