package record_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"newscrawl/internal/domain/entity"
	recordUC "newscrawl/internal/usecase/record"
)

/* ───────── stubs ───────── */

type stubRecords struct {
	byURL       map[string]*entity.ArticleRecord
	list        []*entity.ArticleRecord
	err         error
	gotCategory string
	gotLimit    int
}

func (s *stubRecords) Append(_ context.Context, _ *entity.ArticleRecord) error { return s.err }

func (s *stubRecords) GetByURL(_ context.Context, url string) (*entity.ArticleRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byURL[url], nil
}

func (s *stubRecords) ListByCategory(_ context.Context, category string, limit int) ([]*entity.ArticleRecord, error) {
	s.gotCategory, s.gotLimit = category, limit
	return s.list, s.err
}

type stubSeen struct {
	urls map[string]bool
	err  error
}

func (s *stubSeen) LoadAll(_ context.Context) ([]string, error) { return nil, s.err }
func (s *stubSeen) Insert(_ context.Context, _ string) error    { return s.err }
func (s *stubSeen) Exists(_ context.Context, url string) (bool, error) {
	return s.urls[url], s.err
}

type stubRuns struct {
	entries  []entity.RunLogEntry
	err      error
	gotLimit int
}

func (s *stubRuns) Append(_ context.Context, _ []entity.RunLogEntry) error { return s.err }
func (s *stubRuns) ListRecent(_ context.Context, limit int) ([]entity.RunLogEntry, error) {
	s.gotLimit = limit
	return s.entries, s.err
}

var scrapedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

/* ───────── List ───────── */

func TestService_List(t *testing.T) {
	rec := &entity.ArticleRecord{URL: "https://www.nu.nl/tech/1/a.html", Category: "tech", Status: entity.StatusOK, ScrapedAt: scrapedAt}

	tests := []struct {
		name         string
		category     string
		limit        int
		wantCategory string
		wantLimit    int
		wantErr      error
	}{
		{name: "default limit", category: "tech", limit: 0, wantCategory: "tech", wantLimit: recordUC.DefaultLimit},
		{name: "explicit limit", category: "tech", limit: 10, wantCategory: "tech", wantLimit: 10},
		{name: "all categories", category: "", limit: 5, wantCategory: "", wantLimit: 5},
		{name: "trimmed category", category: "  sport ", limit: 5, wantCategory: "sport", wantLimit: 5},
		{name: "max limit", category: "tech", limit: recordUC.MaxLimit, wantCategory: "tech", wantLimit: recordUC.MaxLimit},
		{name: "negative limit", category: "tech", limit: -1, wantErr: recordUC.ErrInvalidLimit},
		{name: "limit too large", category: "tech", limit: recordUC.MaxLimit + 1, wantErr: recordUC.ErrInvalidLimit},
		{name: "category with slash", category: "tech/../x", limit: 5, wantErr: recordUC.ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRecords{list: []*entity.ArticleRecord{rec}}
			svc := recordUC.Service{Records: repo}

			got, err := svc.List(context.Background(), tt.category, tt.limit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if repo.gotCategory != tt.wantCategory || repo.gotLimit != tt.wantLimit {
				t.Errorf("repo called with (%q, %d), want (%q, %d)", repo.gotCategory, repo.gotLimit, tt.wantCategory, tt.wantLimit)
			}
			if diff := cmp.Diff([]*entity.ArticleRecord{rec}, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestService_List_RepoError(t *testing.T) {
	repoErr := errors.New("db down")
	svc := recordUC.Service{Records: &stubRecords{err: repoErr}}

	_, err := svc.List(context.Background(), "tech", 5)
	if !errors.Is(err, repoErr) {
		t.Fatalf("err = %v, want wrapped %v", err, repoErr)
	}
}

/* ───────── Get ───────── */

func TestService_Get(t *testing.T) {
	url := "https://www.nu.nl/tech/1/a.html"
	rec := &entity.ArticleRecord{URL: url, Title: "A", Category: "tech", Status: entity.StatusOK, ScrapedAt: scrapedAt}
	svc := recordUC.Service{Records: &stubRecords{byURL: map[string]*entity.ArticleRecord{url: rec}}}

	got, err := svc.Get(context.Background(), url)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	_, err = svc.Get(context.Background(), "https://www.nu.nl/tech/2/b.html")
	if !errors.Is(err, recordUC.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}

	for _, bad := range []string{"", "not a url", "ftp://www.nu.nl/x"} {
		if _, err := svc.Get(context.Background(), bad); !errors.Is(err, recordUC.ErrInvalidURL) {
			t.Errorf("Get(%q) err = %v, want ErrInvalidURL", bad, err)
		}
	}
}

func TestService_Get_RepoError(t *testing.T) {
	repoErr := errors.New("db down")
	svc := recordUC.Service{Records: &stubRecords{err: repoErr}}

	_, err := svc.Get(context.Background(), "https://www.nu.nl/tech/1/a.html")
	if !errors.Is(err, repoErr) {
		t.Fatalf("err = %v, want wrapped %v", err, repoErr)
	}
	if errors.Is(err, recordUC.ErrRecordNotFound) {
		t.Error("repository failure must not be reported as not found")
	}
}

/* ───────── IsSeen ───────── */

func TestService_IsSeen(t *testing.T) {
	seenURL := "https://www.nu.nl/sport/9/z.html"
	svc := recordUC.Service{Seen: &stubSeen{urls: map[string]bool{seenURL: true}}}

	seen, err := svc.IsSeen(context.Background(), seenURL)
	if err != nil || !seen {
		t.Errorf("IsSeen(seen) = %v, %v; want true, nil", seen, err)
	}

	seen, err = svc.IsSeen(context.Background(), "https://www.nu.nl/sport/10/y.html")
	if err != nil || seen {
		t.Errorf("IsSeen(unseen) = %v, %v; want false, nil", seen, err)
	}

	if _, err := svc.IsSeen(context.Background(), ""); !errors.Is(err, recordUC.ErrInvalidURL) {
		t.Errorf("err = %v, want ErrInvalidURL", err)
	}

	repoErr := errors.New("db down")
	svc = recordUC.Service{Seen: &stubSeen{err: repoErr}}
	if _, err := svc.IsSeen(context.Background(), seenURL); !errors.Is(err, repoErr) {
		t.Errorf("err = %v, want wrapped %v", err, repoErr)
	}
}

/* ───────── RecentRuns ───────── */

func TestService_RecentRuns(t *testing.T) {
	entries := []entity.RunLogEntry{{CycleID: "c1", CycleStart: scrapedAt, Category: "tech", CandidatesFound: 4, NewProcessed: 2}}
	runs := &stubRuns{entries: entries}
	svc := recordUC.Service{Runs: runs}

	got, err := svc.RecentRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if runs.gotLimit != recordUC.DefaultLimit {
		t.Errorf("limit = %d, want %d", runs.gotLimit, recordUC.DefaultLimit)
	}
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.RecentRuns(context.Background(), 1000); !errors.Is(err, recordUC.ErrInvalidLimit) {
		t.Errorf("err = %v, want ErrInvalidLimit", err)
	}
}
