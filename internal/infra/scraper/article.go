package scraper

import (
	"log/slog"
	"strings"
	"time"

	"newscrawl/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

// ContentExtractor parses a rendered article page into an ArticleRecord.
type ContentExtractor struct {
	layout   Layout
	fallback *ReadabilityExtractor
	now      func() time.Time
}

// ContentOption configures a ContentExtractor.
type ContentOption func(*ContentExtractor)

// WithReadabilityFallback makes the extractor try a readability pass when the
// layout selectors find nothing.
func WithReadabilityFallback() ContentOption {
	return func(e *ContentExtractor) {
		e.fallback = NewReadabilityExtractor()
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ContentOption {
	return func(e *ContentExtractor) {
		e.now = now
	}
}

func NewContentExtractor(layout Layout, opts ...ContentOption) *ContentExtractor {
	e := &ContentExtractor{layout: layout, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractArticle never fails. When the title region or the body region is
// missing, the body region has no paragraph text, or the page cannot be
// parsed, it returns a record with status empty and no title or body. The
// caller sets the category.
//
// The title is the heading inside the title region, or the region's own text
// when there is no heading. The body is the text of every paragraph in the
// body region joined by single spaces.
func (e *ContentExtractor) ExtractArticle(articleHTML, pageURL string) *entity.ArticleRecord {
	scrapedAt := e.now()

	title, body, found := e.extractStructured(articleHTML, pageURL)
	if !found && e.fallback != nil {
		title, body, found = e.fallback.Extract(articleHTML, pageURL)
	}
	if !found || body == "" {
		return entity.NewEmptyRecord(pageURL, "", scrapedAt)
	}

	return &entity.ArticleRecord{
		URL:       pageURL,
		Title:     title,
		Body:      body,
		ScrapedAt: scrapedAt,
		Status:    entity.StatusOK,
	}
}

func (e *ContentExtractor) extractStructured(articleHTML, pageURL string) (title, body string, found bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	if err != nil {
		slog.Warn("article page could not be parsed",
			slog.String("url", pageURL),
			slog.Any("error", err))
		return "", "", false
	}

	titleRegion := doc.Find(e.layout.TitleRegion).First()
	bodyRegion := doc.Find(e.layout.BodyRegion).First()
	if titleRegion.Length() == 0 || bodyRegion.Length() == 0 {
		slog.Debug("article layout not found",
			slog.String("url", pageURL),
			slog.Bool("title_region", titleRegion.Length() > 0),
			slog.Bool("body_region", bodyRegion.Length() > 0))
		return "", "", false
	}

	heading := titleRegion.Find(e.layout.TitleHeading).First()
	if heading.Length() > 0 {
		title = heading.Text()
	} else {
		title = titleRegion.Text()
	}
	title = cleanText(collapseSpace(title))

	var paragraphs []string
	bodyRegion.Find(e.layout.Paragraph).Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	body = cleanText(strings.Join(paragraphs, " "))

	return title, body, true
}
