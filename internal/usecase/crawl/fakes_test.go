package crawl

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"newscrawl/internal/domain/entity"
)

// fakeRenderer serves pages from a map. Errors for a URL are returned in
// order before the page is served.
type fakeRenderer struct {
	mu      sync.Mutex
	pages   map[string]string
	errs    map[string][]error
	calls   map[string]int
	onFetch func(url string)

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		pages: map[string]string{},
		errs:  map[string][]error{},
		calls: map[string]int{},
	}
}

func (f *fakeRenderer) Fetch(ctx context.Context, url string, wait time.Duration) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if n <= max || f.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}

	if f.onFetch != nil {
		f.onFetch(url)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if errs := f.errs[url]; len(errs) > 0 {
		f.errs[url] = errs[1:]
		return "", errs[0]
	}
	html, ok := f.pages[url]
	if !ok {
		return "", &RenderError{Kind: RenderNonSuccessStatus, URL: url, StatusCode: 404}
	}
	return html, nil
}

func (f *fakeRenderer) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// fakeLinks reads one URL per line from "links:" pages.
type fakeLinks struct{}

func (fakeLinks) ExtractLinks(html, category string) []entity.CandidateLink {
	if !strings.HasPrefix(html, "links:") {
		return nil
	}
	var out []entity.CandidateLink
	for _, line := range strings.Split(strings.TrimPrefix(html, "links:"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, entity.CandidateLink{URL: line, Category: category, DiscoveredAt: time.Now()})
		}
	}
	return out
}

type fakeArticles struct{}

func (fakeArticles) ExtractArticle(html, url string) *entity.ArticleRecord {
	if html == "" {
		return entity.NewEmptyRecord(url, "", time.Now())
	}
	return &entity.ArticleRecord{URL: url, Title: "title of " + url, Body: html, Status: entity.StatusOK, ScrapedAt: time.Now()}
}

// memRecords is an idempotent in-memory record store.
type memRecords struct {
	mu       sync.Mutex
	byURL    map[string]*entity.ArticleRecord
	appends  map[string]int
	failURLs map[string]error
}

func newMemRecords() *memRecords {
	return &memRecords{byURL: map[string]*entity.ArticleRecord{}, appends: map[string]int{}, failURLs: map[string]error{}}
}

func (m *memRecords) Append(ctx context.Context, r *entity.ArticleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failURLs[r.URL]; err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	m.appends[r.URL]++
	if _, ok := m.byURL[r.URL]; !ok {
		cp := *r
		m.byURL[r.URL] = &cp
	}
	return nil
}

func (m *memRecords) GetByURL(ctx context.Context, url string) (*entity.ArticleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byURL[url], nil
}

func (m *memRecords) ListByCategory(ctx context.Context, category string, limit int) ([]*entity.ArticleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ArticleRecord
	for _, r := range m.byURL {
		if category == "" || r.Category == category {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecords) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byURL)
}

// memSeen backs dedup.Store. failInserts makes Insert fail for the listed URLs.
type memSeen struct {
	mu          sync.Mutex
	urls        map[string]bool
	inserts     int
	failInserts map[string]error
}

func newMemSeen(urls ...string) *memSeen {
	m := &memSeen{urls: map[string]bool{}, failInserts: map[string]error{}}
	for _, u := range urls {
		m.urls[u] = true
	}
	return m
}

func (m *memSeen) LoadAll(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for u := range m.urls {
		out = append(out, u)
	}
	return out, nil
}

func (m *memSeen) Insert(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failInserts[url]; err != nil {
		return err
	}
	m.inserts++
	m.urls[url] = true
	return nil
}

func (m *memSeen) Exists(ctx context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.urls[url], nil
}

type memRunLog struct {
	mu      sync.Mutex
	batches [][]entity.RunLogEntry
	err     error
}

func (m *memRunLog) Append(ctx context.Context, entries []entity.RunLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, append([]entity.RunLogEntry(nil), entries...))
	return nil
}

func (m *memRunLog) ListRecent(ctx context.Context, limit int) ([]entity.RunLogEntry, error) {
	return nil, errors.New("not implemented")
}
