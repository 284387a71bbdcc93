// Package scraper turns rendered HTML into candidate links and article
// records. Page structure is described by a Layout so markup changes on the
// site are a configuration change.
package scraper

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Layout is the set of CSS selectors and markers describing the site's
// overview and article pages.
type Layout struct {
	// ArticleListBlock matches the regions on an overview page that hold article lists.
	ArticleListBlock string `yaml:"article_list_block"`
	// ListItem matches one entry within a list block.
	ListItem string `yaml:"list_item"`
	// Link matches the anchor inside a list item.
	Link string `yaml:"link"`

	// AdvertorialAttr names the item attribute that flags sponsored content
	// when its value contains AdvertorialMarker.
	AdvertorialAttr   string `yaml:"advertorial_attr"`
	AdvertorialMarker string `yaml:"advertorial_marker"`
	// VideoClass is the item class that flags video content.
	VideoClass string `yaml:"video_class"`

	TitleRegion  string `yaml:"title_region"`
	TitleHeading string `yaml:"title_heading"`
	BodyRegion   string `yaml:"body_region"`
	Paragraph    string `yaml:"paragraph"`
}

// DefaultLayout returns the selectors for nu.nl.
func DefaultLayout() Layout {
	return Layout{
		ArticleListBlock:  "div.block.articlelist",
		ListItem:          "li",
		Link:              "a[href]",
		AdvertorialAttr:   "data-sac-marker",
		AdvertorialMarker: "advertorial",
		VideoClass:        "hasvideo",
		TitleRegion:       "div.title",
		TitleHeading:      "h1",
		BodyRegion:        "div.block.article.body",
		Paragraph:         "p",
	}
}

// Validate checks that every selector is present and parses.
// The exclusion markers are optional; an empty marker disables that rule.
func (l Layout) Validate() error {
	selectors := []struct {
		field string
		value string
	}{
		{"article_list_block", l.ArticleListBlock},
		{"list_item", l.ListItem},
		{"link", l.Link},
		{"title_region", l.TitleRegion},
		{"title_heading", l.TitleHeading},
		{"body_region", l.BodyRegion},
		{"paragraph", l.Paragraph},
	}

	for _, s := range selectors {
		if s.value == "" {
			return fmt.Errorf("layout %s: selector is required", s.field)
		}
		if _, err := cascadia.ParseGroup(s.value); err != nil {
			return fmt.Errorf("layout %s: invalid selector %q: %w", s.field, s.value, err)
		}
	}

	if (l.AdvertorialAttr == "") != (l.AdvertorialMarker == "") {
		return fmt.Errorf("layout: advertorial_attr and advertorial_marker must be set together")
	}

	return nil
}
