package repository

import (
	"context"

	"newscrawl/internal/domain/entity"
)

type RunLogRepository interface {
	// Append writes all entries of one cycle atomically.
	Append(ctx context.Context, entries []entity.RunLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]entity.RunLogEntry, error)
}
