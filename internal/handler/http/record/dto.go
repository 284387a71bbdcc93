package record

import (
	"time"

	"newscrawl/internal/domain/entity"
)

// RecordDTO is the JSON form of an article record.
type RecordDTO struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	ScrapedAt time.Time `json:"scraped_at"`
}

func toRecordDTO(r *entity.ArticleRecord) RecordDTO {
	return RecordDTO{
		URL:       r.URL,
		Title:     r.Title,
		Body:      r.Body,
		Category:  r.Category,
		Status:    string(r.Status),
		ScrapedAt: r.ScrapedAt.UTC(),
	}
}

// ListResponse wraps a record listing.
type ListResponse struct {
	Category string      `json:"category,omitempty"`
	Count    int         `json:"count"`
	Records  []RecordDTO `json:"records"`
}

// SeenResponse answers a seen-set membership query.
type SeenResponse struct {
	URL  string `json:"url"`
	Seen bool   `json:"seen"`
}

// RunDTO is the JSON form of one run log entry.
type RunDTO struct {
	CycleID         string    `json:"cycle_id"`
	CycleStart      time.Time `json:"cycle_start"`
	Category        string    `json:"category"`
	CandidatesFound int       `json:"candidates_found"`
	Duplicates      int       `json:"duplicates"`
	NewProcessed    int       `json:"new_processed"`
	Failures        int       `json:"failures"`
	OverviewError   string    `json:"overview_error,omitempty"`
}

func toRunDTO(e entity.RunLogEntry) RunDTO {
	return RunDTO{
		CycleID:         e.CycleID,
		CycleStart:      e.CycleStart.UTC(),
		Category:        e.Category,
		CandidatesFound: e.CandidatesFound,
		Duplicates:      e.Duplicates,
		NewProcessed:    e.NewProcessed,
		Failures:        e.Failures,
		OverviewError:   e.OverviewError,
	}
}

// RunsResponse wraps a run log listing.
type RunsResponse struct {
	Count int      `json:"count"`
	Runs  []RunDTO `json:"runs"`
}
