package entity

import (
	"strings"
	"time"
)

// CategoryPlaceholder is replaced by the category identifier in overview URL templates.
const CategoryPlaceholder = "{category}"

// CrawlTarget is a configured category and the template for its overview page.
// Targets are built once at startup and never mutated.
type CrawlTarget struct {
	Category    string
	URLTemplate string
}

// OverviewURL returns the overview page URL for the target.
func (t CrawlTarget) OverviewURL() string {
	return strings.ReplaceAll(t.URLTemplate, CategoryPlaceholder, t.Category)
}

// Validate checks that the target names a category and resolves to a usable URL.
func (t CrawlTarget) Validate() error {
	if strings.TrimSpace(t.Category) == "" {
		return &ValidationError{Field: "category", Message: "category is required"}
	}
	if strings.ContainsAny(t.Category, "/?#") {
		return &ValidationError{Field: "category", Message: "category must be a single path segment"}
	}
	return ValidateURL(t.OverviewURL())
}

// CandidateLink is an article URL discovered on an overview page during one cycle.
// It is never persisted on its own.
type CandidateLink struct {
	URL          string
	Category     string
	DiscoveredAt time.Time
}
