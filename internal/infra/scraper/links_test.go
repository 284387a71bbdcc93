package scraper_test

import (
	"strings"
	"testing"

	"newscrawl/internal/infra/scraper"

	"github.com/google/go-cmp/cmp"
)

func urlsOf(t *testing.T, e *scraper.LinkExtractor, html string) []string {
	t.Helper()
	var out []string
	for _, l := range e.ExtractLinks(html, "tech") {
		if l.Category != "tech" {
			t.Errorf("Category = %q, want tech", l.Category)
		}
		if l.DiscoveredAt.IsZero() {
			t.Error("DiscoveredAt not set")
		}
		out = append(out, l.URL)
	}
	return out
}

func newLinkExtractor(t *testing.T) *scraper.LinkExtractor {
	t.Helper()
	e, err := scraper.NewLinkExtractor(scraper.DefaultLayout(), "https://www.nu.nl")
	if err != nil {
		t.Fatalf("NewLinkExtractor() error = %v", err)
	}
	return e
}

func TestExtractLinks_ExcludesAdvertorialAndVideo(t *testing.T) {
	html := `<html><body>
<div class="block articlelist">
  <ul>
    <li><a href="/tech/6000001/plain-article.html">Plain</a></li>
    <li data-sac-marker="block-advertorial-item"><a href="/advertorial/1/sponsored.html">Ad</a></li>
    <li class="list-item hasvideo"><a href="/tech/6000002/video.html">Video</a></li>
  </ul>
</div>
</body></html>`

	got := urlsOf(t, newLinkExtractor(t), html)

	want := []string{"https://www.nu.nl/tech/6000001/plain-article.html"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractLinks() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinks_PageOrderAcrossBlocksWithDuplicates(t *testing.T) {
	html := `<html><body>
<div class="block articlelist"><ul>
  <li><a href="/tech/1/a.html">A</a></li>
  <li><a href="/tech/2/b.html#comments">B</a></li>
</ul></div>
<div class="block sidebar"><ul><li><a href="/tech/99/ignored.html">not a list block</a></li></ul></div>
<div class="block articlelist"><ul>
  <li><a href="https://www.nu.nl/tech/1/a.html">A again</a></li>
  <li><a href="//www.nu.nl/tech/3/c.html">C</a></li>
</ul></div>
</body></html>`

	got := urlsOf(t, newLinkExtractor(t), html)

	want := []string{
		"https://www.nu.nl/tech/1/a.html",
		"https://www.nu.nl/tech/2/b.html",
		"https://www.nu.nl/tech/1/a.html",
		"https://www.nu.nl/tech/3/c.html",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractLinks() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinks_SkipsUnusableItems(t *testing.T) {
	html := `<div class="block articlelist"><ul>
  <li>No link at all</li>
  <li><a>anchor without href</a></li>
  <li><a href="">empty</a></li>
  <li><a href="#top">fragment only</a></li>
  <li><a href="javascript:void(0)">script</a></li>
  <li><a href="mailto:redactie@nu.nl">mail</a></li>
  <li><a href="/tech/5/` + strings.Repeat("x", 2100) + `.html">too long to store</a></li>
  <li><a href="tech/4/d.html">relative</a></li>
</ul></div>`

	got := urlsOf(t, newLinkExtractor(t), html)

	want := []string{"https://www.nu.nl/tech/4/d.html"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractLinks() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinks_NoBlocks(t *testing.T) {
	e := newLinkExtractor(t)

	for _, html := range []string{"", "<html><body><p>nothing here</p></body></html>", "<<<>>> garbage \x00"} {
		if got := e.ExtractLinks(html, "tech"); len(got) != 0 {
			t.Errorf("ExtractLinks(%q) = %v, want none", html, got)
		}
	}
}

// Property: whatever mix of items a page holds, no advertorial or video
// item ever comes out.
func TestExtractLinks_NeverReturnsExcludedItems(t *testing.T) {
	e := newLinkExtractor(t)

	kinds := []string{"plain", "advertorial", "video", "both"}
	var items string
	wantCount := 0
	for i := 0; i < 40; i++ {
		kind := kinds[(i*7+3)%len(kinds)]
		attrs := ""
		switch kind {
		case "advertorial":
			attrs = ` data-sac-marker="advertorial"`
		case "video":
			attrs = ` class="hasvideo"`
		case "both":
			attrs = ` class="teaser hasvideo" data-sac-marker="x-advertorial-y"`
		default:
			wantCount++
		}
		items += `<li` + attrs + `><a href="/` + kind + `/item.html">x</a></li>`
	}
	html := `<div class="block articlelist"><ul>` + items + `</ul></div>`

	got := e.ExtractLinks(html, "tech")

	if len(got) != wantCount {
		t.Fatalf("got %d links, want %d", len(got), wantCount)
	}
	for _, l := range got {
		if l.URL != "https://www.nu.nl/plain/item.html" {
			t.Errorf("excluded item leaked: %s", l.URL)
		}
	}
}

func TestNewLinkExtractor_RejectsRelativeBase(t *testing.T) {
	if _, err := scraper.NewLinkExtractor(scraper.DefaultLayout(), "/nu.nl"); err == nil {
		t.Error("expected error for relative base URL")
	}
}
