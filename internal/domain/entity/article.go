// Package entity defines the core domain entities and validation logic for the crawler.
// It contains the crawl targets, candidate links, persisted article records and run
// log entries, along with their validation rules and domain-specific errors.
package entity

import (
	"fmt"
	"time"
)

// RecordStatus is the outcome of processing one article URL.
type RecordStatus string

const (
	// StatusOK means title and body were extracted.
	StatusOK RecordStatus = "ok"
	// StatusEmpty means the page was rendered but the title or body region was missing.
	StatusEmpty RecordStatus = "empty"
	// StatusFailed means the page could not be rendered and the failure is permanent.
	StatusFailed RecordStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s RecordStatus) Valid() bool {
	switch s {
	case StatusOK, StatusEmpty, StatusFailed:
		return true
	}
	return false
}

// ArticleRecord is the persisted outcome of processing one article URL.
// URL is the unique key. Records are immutable once appended to the record store.
type ArticleRecord struct {
	URL       string
	Title     string
	Body      string
	Category  string
	ScrapedAt time.Time
	Status    RecordStatus
}

// NewEmptyRecord builds the record for a page whose structure could not be located.
func NewEmptyRecord(url, category string, scrapedAt time.Time) *ArticleRecord {
	return &ArticleRecord{
		URL:       url,
		Category:  category,
		ScrapedAt: scrapedAt,
		Status:    StatusEmpty,
	}
}

// NewFailedRecord builds the record for a page that permanently failed to render.
func NewFailedRecord(url, category string, scrapedAt time.Time) *ArticleRecord {
	return &ArticleRecord{
		URL:       url,
		Category:  category,
		ScrapedAt: scrapedAt,
		Status:    StatusFailed,
	}
}

// Validate checks the invariants a record must satisfy before it is persisted.
func (r *ArticleRecord) Validate() error {
	if r.URL == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}
	if len(r.URL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}
	if r.Category == "" {
		return &ValidationError{Field: "category", Message: "category is required"}
	}
	if !r.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("invalid status %q", r.Status)}
	}
	if r.ScrapedAt.IsZero() {
		return &ValidationError{Field: "scraped_at", Message: "scraped_at is required"}
	}
	if r.Status == StatusFailed && (r.Title != "" || r.Body != "") {
		return &ValidationError{Field: "status", Message: "failed records cannot carry content"}
	}
	return nil
}
