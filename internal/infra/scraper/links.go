package scraper

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"newscrawl/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

// LinkExtractor finds article links on a category overview page.
type LinkExtractor struct {
	layout Layout
	base   *url.URL
	now    func() time.Time
}

// NewLinkExtractor returns an extractor resolving relative links against baseURL.
func NewLinkExtractor(layout Layout, baseURL string) (*LinkExtractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	return &LinkExtractor{layout: layout, base: base, now: time.Now}, nil
}

// ExtractLinks returns the candidate links of all article list blocks in page
// order. Advertorial and video items are skipped, as are items without a
// usable link. Duplicates are kept. A page without list blocks, or one that
// cannot be parsed, yields no links.
func (e *LinkExtractor) ExtractLinks(overviewHTML, category string) []entity.CandidateLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(overviewHTML))
	if err != nil {
		slog.Warn("overview page could not be parsed",
			slog.String("category", category),
			slog.Any("error", err))
		return nil
	}

	discoveredAt := e.now()
	var links []entity.CandidateLink

	doc.Find(e.layout.ArticleListBlock).Each(func(_ int, block *goquery.Selection) {
		block.Find(e.layout.ListItem).Each(func(i int, item *goquery.Selection) {
			if e.excluded(item) {
				return
			}

			href, ok := item.Find(e.layout.Link).First().Attr("href")
			if !ok {
				return
			}
			abs, ok := e.resolve(href)
			if !ok {
				slog.Debug("skipping item with unusable link",
					slog.String("category", category),
					slog.Int("index", i),
					slog.String("href", href))
				return
			}

			links = append(links, entity.CandidateLink{
				URL:          abs,
				Category:     category,
				DiscoveredAt: discoveredAt,
			})
		})
	})

	return links
}

func (e *LinkExtractor) excluded(item *goquery.Selection) bool {
	if e.layout.AdvertorialAttr != "" {
		if v, ok := item.Attr(e.layout.AdvertorialAttr); ok && strings.Contains(v, e.layout.AdvertorialMarker) {
			return true
		}
	}
	if e.layout.VideoClass != "" && item.HasClass(e.layout.VideoClass) {
		return true
	}
	return false
}

// resolve turns href into an absolute http(s) URL without fragment. URLs the
// record store would reject are dropped here so they are never rendered.
func (e *LinkExtractor) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := e.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	abs.RawFragment = ""

	resolved := abs.String()
	if err := entity.ValidateURL(resolved); err != nil {
		return "", false
	}
	return resolved, true
}
