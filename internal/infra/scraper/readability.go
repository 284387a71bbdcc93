package scraper

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ReadabilityExtractor pulls the main text out of a page without relying on
// site specific selectors.
type ReadabilityExtractor struct{}

func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{}
}

// Extract reports found=false when readability cannot identify any text.
func (r *ReadabilityExtractor) Extract(articleHTML, pageURL string) (title, body string, found bool) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", "", false
	}

	article, err := readability.FromReader(strings.NewReader(articleHTML), parsedURL)
	if err != nil {
		slog.Debug("readability extraction failed",
			slog.String("url", pageURL),
			slog.Any("error", err))
		return "", "", false
	}

	body = cleanText(collapseSpace(article.TextContent))
	if body == "" {
		return "", "", false
	}

	return cleanText(collapseSpace(article.Title)), body, true
}
