package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"newscrawl/internal/domain/entity"
	"newscrawl/internal/observability/logging"
	"newscrawl/internal/observability/metrics"
	"newscrawl/internal/observability/tracing"
	"newscrawl/internal/repository"
	"newscrawl/internal/resilience/retry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Renderer fetches a fully rendered page. Failures are *RenderError.
type Renderer interface {
	Fetch(ctx context.Context, url string, wait time.Duration) (string, error)
}

// LinkExtractor finds candidate article links on an overview page.
type LinkExtractor interface {
	ExtractLinks(overviewHTML, category string) []entity.CandidateLink
}

// ArticleExtractor turns an article page into a record. It never fails;
// unusable pages yield a record with status empty.
type ArticleExtractor interface {
	ExtractArticle(articleHTML, url string) *entity.ArticleRecord
}

// DedupStore is the seen set with compare-and-claim.
type DedupStore interface {
	Contains(url string) bool
	Claim(url string) bool
	Release(url string)
	MarkSeen(ctx context.Context, url string) error
	Len() int
}

// Config holds the knobs of a crawl cycle.
type Config struct {
	Targets []entity.CrawlTarget

	// Concurrency bounds the number of articles processed at once per target.
	Concurrency int

	// OverviewWait and ArticleWait are the render settle times.
	OverviewWait time.Duration
	ArticleWait  time.Duration

	// MaxArticlesPerTarget caps new articles per target per cycle. 0 means no cap.
	MaxArticlesPerTarget int

	// Retry applies to transient render failures.
	Retry retry.Config
}

// Service runs crawl cycles.
type Service struct {
	renderer Renderer
	links    LinkExtractor
	articles ArticleExtractor
	dedup    DedupStore
	records  repository.RecordRepository
	runLog   repository.RunLogRepository
	cfg      Config
	now      func() time.Time
}

// NewService creates a crawl Service. Concurrency below 1 is treated as 1.
func NewService(
	renderer Renderer,
	links LinkExtractor,
	articles ArticleExtractor,
	dedup DedupStore,
	records repository.RecordRepository,
	runLog repository.RunLogRepository,
	cfg Config,
) (*Service, error) {
	if len(cfg.Targets) == 0 {
		return nil, ErrNoTargets
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Service{
		renderer: renderer,
		links:    links,
		articles: articles,
		dedup:    dedup,
		records:  records,
		runLog:   runLog,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// CycleStats summarises one cycle.
type CycleStats struct {
	CycleID     string
	Start       time.Time
	Duration    time.Duration
	Entries     []entity.RunLogEntry
	Interrupted bool
}

// Totals sums the run log entries.
func (s *CycleStats) Totals() (candidates, duplicates, processed, failures int) {
	for _, e := range s.Entries {
		candidates += e.CandidatesFound
		duplicates += e.Duplicates
		processed += e.NewProcessed
		failures += e.Failures
	}
	return
}

// RunCycle crawls every target once and writes the run log.
//
// Per-URL failures never abort the cycle. When ctx is cancelled no new URLs
// are started, URLs already in flight finish their persist and mark steps,
// the run log of the targets touched so far is written, and the returned
// stats have Interrupted set. An error is returned only when the run log
// cannot be written.
func (s *Service) RunCycle(ctx context.Context) (*CycleStats, error) {
	stats := &CycleStats{
		CycleID: uuid.NewString(),
		Start:   s.now(),
	}

	ctx = logging.WithCycleID(ctx, stats.CycleID)
	logger := logging.FromContext(ctx)
	ctx, span := tracing.StartSpan(ctx, "crawl.cycle",
		attribute.String("cycle.id", stats.CycleID),
		attribute.Int("cycle.targets", len(s.cfg.Targets)))

	logger.Info("crawl cycle started", slog.Int("targets", len(s.cfg.Targets)))

	for _, target := range s.cfg.Targets {
		if ctx.Err() != nil {
			stats.Interrupted = true
			break
		}
		entry := s.processTarget(ctx, stats, target)
		stats.Entries = append(stats.Entries, entry)
	}
	if ctx.Err() != nil {
		stats.Interrupted = true
	}

	err := s.flushRunLog(context.WithoutCancel(ctx), stats.Entries)
	stats.Duration = time.Since(stats.Start)
	tracing.EndSpan(span, err)

	candidates, duplicates, processed, failures := stats.Totals()
	logger.Info("crawl cycle completed",
		slog.Int("candidates", candidates),
		slog.Int("duplicates", duplicates),
		slog.Int("new_processed", processed),
		slog.Int("failures", failures),
		slog.Bool("interrupted", stats.Interrupted),
		slog.Int("seen_total", s.dedup.Len()),
		slog.Duration("duration", stats.Duration))

	return stats, err
}

func (s *Service) flushRunLog(ctx context.Context, entries []entity.RunLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.runLog.Append(ctx, entries); err != nil {
		metrics.RecordStorageError("append_run_log")
		return &StoreError{Op: "append run log", Err: err}
	}
	return nil
}

type targetCounters struct {
	processed atomic.Int64
	failures  atomic.Int64
}

func (s *Service) processTarget(ctx context.Context, stats *CycleStats, target entity.CrawlTarget) entity.RunLogEntry {
	entry := entity.RunLogEntry{
		CycleID:    stats.CycleID,
		CycleStart: stats.Start,
		Category:   target.Category,
	}

	ctx, span := tracing.StartSpan(ctx, "crawl.target", attribute.String("category", target.Category))
	defer span.End()

	logger := logging.FromContext(ctx).With(slog.String("category", target.Category))
	overviewURL := target.OverviewURL()

	html, err := s.render(ctx, ctx, overviewURL, s.cfg.OverviewWait)
	if err != nil {
		logger.Warn("overview page render failed",
			slog.String("url", overviewURL),
			slog.Any("error", err))
		entry.Failures = 1
		entry.OverviewError = err.Error()
		span.RecordError(err)
		return entry
	}

	candidates := s.links.ExtractLinks(html, target.Category)
	entry.CandidatesFound = len(candidates)

	pending := make([]entity.CandidateLink, 0, len(candidates))
	for _, c := range candidates {
		if s.cfg.MaxArticlesPerTarget > 0 && len(pending) >= s.cfg.MaxArticlesPerTarget {
			break
		}
		if err := entity.ValidateURL(c.URL); err != nil {
			logger.Warn("candidate url cannot be stored, skipping",
				slog.String("url", c.URL),
				slog.Any("error", err))
			continue
		}
		if !s.dedup.Claim(c.URL) {
			entry.Duplicates++
			continue
		}
		pending = append(pending, c)
	}
	metrics.RecordDiscovery(target.Category, entry.CandidatesFound, entry.Duplicates)

	logger.Info("candidates filtered",
		slog.Int("candidates", entry.CandidatesFound),
		slog.Int("duplicates", entry.Duplicates),
		slog.Int("new", len(pending)))

	var counters targetCounters
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for i, link := range pending {
		if ctx.Err() != nil {
			for _, rest := range pending[i:] {
				s.dedup.Release(rest.URL)
			}
			break
		}
		g.Go(func() error {
			s.processURL(ctx, link, &counters)
			return nil
		})
	}
	_ = g.Wait()

	entry.NewProcessed = int(counters.processed.Load())
	entry.Failures = int(counters.failures.Load())
	span.SetAttributes(
		attribute.Int("crawl.candidates", entry.CandidatesFound),
		attribute.Int("crawl.new_processed", entry.NewProcessed),
		attribute.Int("crawl.failures", entry.Failures))

	return entry
}

// processURL handles one claimed URL: render, extract, persist, then mark.
// The claim is released on every path that does not mark the URL.
func (s *Service) processURL(ctx context.Context, link entity.CandidateLink, c *targetCounters) {
	if ctx.Err() != nil {
		s.dedup.Release(link.URL)
		return
	}

	start := time.Now()
	defer func() { metrics.RecordURLDuration(time.Since(start)) }()

	// Once started, a URL runs to completion even if ctx is cancelled.
	workCtx := context.WithoutCancel(ctx)
	workCtx, span := tracing.StartSpan(workCtx, "crawl.url", attribute.String("url", link.URL))
	logger := logging.FromContext(ctx).With(
		slog.String("category", link.Category),
		slog.String("url", link.URL))

	var record *entity.ArticleRecord
	html, err := s.render(ctx, workCtx, link.URL, s.cfg.ArticleWait)
	switch {
	case err == nil:
		record = s.articles.ExtractArticle(html, link.URL)
	case IsPermanent(err):
		logger.Warn("article render failed permanently, recording failure", slog.Any("error", err))
		record = entity.NewFailedRecord(link.URL, link.Category, s.now())
		c.failures.Add(1)
	default:
		logger.Warn("article render failed, will retry next cycle", slog.Any("error", err))
		s.dedup.Release(link.URL)
		c.failures.Add(1)
		tracing.EndSpan(span, err)
		return
	}
	record.URL = link.URL
	record.Category = link.Category
	if record.ScrapedAt.IsZero() {
		record.ScrapedAt = s.now()
	}

	if err := s.records.Append(workCtx, record); err != nil {
		storeErr := &StoreError{Op: "append record", URL: link.URL, Err: err}
		logger.Error("record not persisted, url left unmarked", slog.Any("error", storeErr))
		metrics.RecordStorageError("append_record")
		s.dedup.Release(link.URL)
		c.failures.Add(1)
		tracing.EndSpan(span, storeErr)
		return
	}
	metrics.RecordPersisted(link.Category, string(record.Status))

	if err := s.dedup.MarkSeen(workCtx, link.URL); err != nil {
		storeErr := &StoreError{Op: "mark seen", URL: link.URL, Err: err}
		logger.Error("record persisted but url not marked, it will be reprocessed", slog.Any("error", storeErr))
		metrics.RecordStorageError("mark_seen")
		s.dedup.Release(link.URL)
		c.failures.Add(1)
		tracing.EndSpan(span, storeErr)
		return
	}

	c.processed.Add(1)
	span.SetAttributes(attribute.String("record.status", string(record.Status)))
	tracing.EndSpan(span, nil)
	logger.Debug("article processed", slog.String("status", string(record.Status)))
}

// render fetches url with retries for transient failures. Backoff waits end
// when retryCtx is done; the fetch itself runs on fetchCtx.
func (s *Service) render(retryCtx, fetchCtx context.Context, url string, wait time.Duration) (string, error) {
	cfg := s.cfg.Retry
	cfg.ShouldRetry = func(err error) bool {
		return retryCtx.Err() == nil && IsTransient(err)
	}

	var html string
	err := retry.WithBackoff(retryCtx, cfg, func() error {
		h, err := s.renderer.Fetch(fetchCtx, url, wait)
		if err != nil {
			return err
		}
		html = h
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}
