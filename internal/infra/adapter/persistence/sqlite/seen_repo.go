package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newscrawl/internal/observability/metrics"
	"newscrawl/internal/repository"
)

// SeenRepo implements the SeenRepository interface using SQLite.
type SeenRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSeenRepo creates a new SQLite-backed seen-URL repository.
func NewSeenRepo(db *sql.DB) repository.SeenRepository {
	return &SeenRepo{db: db, now: time.Now}
}

// LoadAll returns every seen URL.
func (repo *SeenRepo) LoadAll(ctx context.Context) ([]string, error) {
	const query = `SELECT url FROM seen_urls`

	start := time.Now()
	rows, err := repo.db.QueryContext(ctx, query)
	metrics.RecordDBQuery("load_seen", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("LoadAll: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	urls := make([]string, 0, 1024)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("LoadAll: Scan: %w", err)
		}
		urls = append(urls, url)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadAll: rows.Err: %w", err)
	}

	return urls, nil
}

// Insert adds url to the seen set. Existing URLs are ignored.
func (repo *SeenRepo) Insert(ctx context.Context, url string) error {
	const query = `INSERT OR IGNORE INTO seen_urls (url, seen_at) VALUES (?, ?)`

	start := time.Now()
	_, err := repo.db.ExecContext(ctx, query, url, repo.now().UTC())
	metrics.RecordDBQuery("mark_seen", time.Since(start))
	if err != nil {
		return fmt.Errorf("Insert: ExecContext: %w", err)
	}
	return nil
}

// Exists reports whether url has been seen.
func (repo *SeenRepo) Exists(ctx context.Context, url string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM seen_urls WHERE url = ?)`

	var exists bool
	if err := repo.db.QueryRowContext(ctx, query, url).Scan(&exists); err != nil {
		return false, fmt.Errorf("Exists: QueryRowContext: %w", err)
	}
	return exists, nil
}
