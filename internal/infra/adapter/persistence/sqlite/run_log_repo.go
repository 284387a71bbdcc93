package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newscrawl/internal/domain/entity"
	"newscrawl/internal/observability/metrics"
	"newscrawl/internal/repository"
)

// RunLogRepo implements the RunLogRepository interface using SQLite.
type RunLogRepo struct{ db *sql.DB }

// NewRunLogRepo creates a new SQLite-backed run log repository.
func NewRunLogRepo(db *sql.DB) repository.RunLogRepository {
	return &RunLogRepo{db: db}
}

// Append writes the entries of one cycle in a single transaction.
func (repo *RunLogRepo) Append(ctx context.Context, entries []entity.RunLogEntry) (err error) {
	if len(entries) == 0 {
		return nil
	}
	const query = `
INSERT INTO crawl_runs
    (cycle_id, cycle_start, category, candidates_found, duplicates, new_processed, failures, overview_error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

	start := time.Now()
	defer func() { metrics.RecordDBQuery("append_run_log", time.Since(start)) }()

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Append: BeginTx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("Append: PrepareContext: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx,
			e.CycleID, e.CycleStart.UTC(), e.Category,
			e.CandidatesFound, e.Duplicates, e.NewProcessed, e.Failures,
			e.OverviewError); err != nil {
			return fmt.Errorf("Append: ExecContext %s: %w", e.Category, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("Append: Commit: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries first.
func (repo *RunLogRepo) ListRecent(ctx context.Context, limit int) ([]entity.RunLogEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	const query = `
SELECT cycle_id, cycle_start, category, candidates_found, duplicates, new_processed, failures, overview_error
FROM crawl_runs
ORDER BY cycle_start DESC, id DESC
LIMIT ?
`

	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]entity.RunLogEntry, 0, limit)
	for rows.Next() {
		var e entity.RunLogEntry
		if err := rows.Scan(&e.CycleID, &e.CycleStart, &e.Category,
			&e.CandidatesFound, &e.Duplicates, &e.NewProcessed, &e.Failures,
			&e.OverviewError); err != nil {
			return nil, fmt.Errorf("ListRecent: Scan: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRecent: rows.Err: %w", err)
	}

	return entries, nil
}
