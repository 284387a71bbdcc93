package repository

import (
	"context"

	"newscrawl/internal/domain/entity"
)

// RecordRepository persists scraped article records.
type RecordRepository interface {
	// Append stores a record. Appending a URL that is already stored is a no-op.
	Append(ctx context.Context, record *entity.ArticleRecord) error
	// GetByURL returns the record for url, or (nil, nil) when none exists.
	GetByURL(ctx context.Context, url string) (*entity.ArticleRecord, error)
	// ListByCategory returns the newest records first. An empty category lists all.
	ListByCategory(ctx context.Context, category string, limit int) ([]*entity.ArticleRecord, error)
}
