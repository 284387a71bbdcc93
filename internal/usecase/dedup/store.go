// Package dedup keeps the set of URLs that have been fully processed.
//
// The set is loaded once from durable storage and every MarkSeen is written
// through before it returns. A URL may be marked only after its record has
// been stored; Claim keeps concurrent workers from processing the same URL
// twice within a cycle.
package dedup

import (
	"context"
	"fmt"
	"sync"

	"newscrawl/internal/observability/metrics"
	"newscrawl/internal/repository"
)

// Store is the in-memory seen set backed by a SeenRepository.
// It is safe for concurrent use.
type Store struct {
	repo repository.SeenRepository

	mu      sync.Mutex
	seen    map[string]struct{}
	claimed map[string]struct{}
}

// Open loads every seen URL from repo.
func Open(ctx context.Context, repo repository.SeenRepository) (*Store, error) {
	urls, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seen urls: %w", err)
	}

	s := &Store{
		repo:    repo,
		seen:    make(map[string]struct{}, len(urls)),
		claimed: make(map[string]struct{}),
	}
	for _, u := range urls {
		s.seen[u] = struct{}{}
	}
	metrics.UpdateDedupSetSize(len(s.seen))

	return s, nil
}

func (s *Store) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[url]
	return ok
}

// Claim reserves url for the caller. It returns false when url is already
// seen or claimed by someone else. A successful claim ends with MarkSeen or
// Release.
func (s *Store) Claim(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[url]; ok {
		return false
	}
	if _, ok := s.claimed[url]; ok {
		return false
	}
	s.claimed[url] = struct{}{}
	return true
}

// Release gives up a claim without marking the URL.
func (s *Store) Release(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claimed, url)
}

// MarkSeen durably records url as processed. Marking a URL that is already
// seen is a no-op. On a storage error the URL stays unseen and any claim on
// it is kept, so the caller decides whether to release it.
//
// The repository write happens outside the lock; the claim prevents a
// concurrent mark of the same URL.
func (s *Store) MarkSeen(ctx context.Context, url string) error {
	if s.Contains(url) {
		return nil
	}

	if err := s.repo.Insert(ctx, url); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}

	s.mu.Lock()
	s.seen[url] = struct{}{}
	delete(s.claimed, url)
	n := len(s.seen)
	s.mu.Unlock()

	metrics.UpdateDedupSetSize(n)
	return nil
}

// Len returns the number of seen URLs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
