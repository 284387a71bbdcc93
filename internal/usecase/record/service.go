package record

import (
	"context"
	"fmt"
	"strings"

	"newscrawl/internal/domain/entity"
	"newscrawl/internal/repository"
)

const (
	// DefaultLimit applies when the caller passes 0.
	DefaultLimit = 50
	// MaxLimit caps list queries.
	MaxLimit = 500
)

// Service answers read queries over the record, seen and run log stores.
type Service struct {
	Records repository.RecordRepository
	Seen    repository.SeenRepository
	Runs    repository.RunLogRepository
}

func normalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit < 0 || limit > MaxLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidLimit, MaxLimit)
	}
	return limit, nil
}

func validateURL(url string) error {
	if err := entity.ValidateURL(url); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return nil
}

// List returns the newest records of category. An empty category lists all
// categories.
func (s *Service) List(ctx context.Context, category string, limit int) ([]*entity.ArticleRecord, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	if strings.ContainsAny(category, "/?#") {
		return nil, fmt.Errorf("%w: category must be a single path segment", ErrInvalidCategory)
	}

	records, err := s.Records.ListByCategory(ctx, category, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Get returns the record stored for url.
func (s *Service) Get(ctx context.Context, url string) (*entity.ArticleRecord, error) {
	if err := validateURL(url); err != nil {
		return nil, err
	}

	rec, err := s.Records.GetByURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// IsSeen reports whether url is in the durable seen set.
func (s *Service) IsSeen(ctx context.Context, url string) (bool, error) {
	if err := validateURL(url); err != nil {
		return false, err
	}

	seen, err := s.Seen.Exists(ctx, url)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return seen, nil
}

// RecentRuns returns the latest run log entries, newest cycle first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]entity.RunLogEntry, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	entries, err := s.Runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return entries, nil
}
