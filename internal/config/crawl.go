package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"newscrawl/internal/domain/entity"
	"newscrawl/internal/infra/render"
	"newscrawl/internal/infra/scraper"
	pkgconfig "newscrawl/internal/pkg/config"
)

// DefaultCategories are crawled when the file names no targets.
var DefaultCategories = []string{"economie", "sport", "tech", "entertainment", "lifestyle"}

// Default site and render settle times.
const (
	DefaultBaseURL      = "https://www.nu.nl"
	DefaultOverviewPath = "/" + entity.CategoryPlaceholder
	DefaultRenderWait   = 500 * time.Millisecond
)

// CrawlConfig is the domain configuration of the crawler: what to crawl,
// how pages are laid out and how to reach the render service.
type CrawlConfig struct {
	Site    SiteConfig     `yaml:"site"`
	Targets []TargetConfig `yaml:"targets"`
	Layout  scraper.Layout `yaml:"layout"`
	Render  RenderConfig   `yaml:"render"`
	Extract ExtractConfig  `yaml:"extract"`

	// Warnings collects ignored environment overrides.
	Warnings []string `yaml:"-"`
}

// SiteConfig locates the overview pages.
type SiteConfig struct {
	// BaseURL is the site origin; article hrefs resolve against it.
	BaseURL string `yaml:"base_url"`
	// OverviewPath is appended to BaseURL. It must contain {category}.
	OverviewPath string `yaml:"overview_path"`
}

// TargetConfig is one category. OverviewURL overrides the site template.
type TargetConfig struct {
	Category    string `yaml:"category"`
	OverviewURL string `yaml:"overview_url,omitempty"`
}

// RenderConfig is the render client configuration plus settle times.
type RenderConfig struct {
	render.Config `yaml:",inline"`

	OverviewWait time.Duration `yaml:"overview_wait"`
	ArticleWait  time.Duration `yaml:"article_wait"`
}

type ExtractConfig struct {
	ReadabilityFallback bool `yaml:"readability_fallback"`
}

// DefaultCrawlConfig returns the configuration for nu.nl with a local Splash.
func DefaultCrawlConfig() *CrawlConfig {
	targets := make([]TargetConfig, 0, len(DefaultCategories))
	for _, c := range DefaultCategories {
		targets = append(targets, TargetConfig{Category: c})
	}
	return &CrawlConfig{
		Site: SiteConfig{
			BaseURL:      DefaultBaseURL,
			OverviewPath: DefaultOverviewPath,
		},
		Targets: targets,
		Layout:  scraper.DefaultLayout(),
		Render: RenderConfig{
			Config:       render.DefaultConfig(),
			OverviewWait: DefaultRenderWait,
			ArticleWait:  DefaultRenderWait,
		},
	}
}

// LoadCrawlConfig reads the YAML file at path over the defaults, applies the
// RENDER_ENDPOINT, SITE_BASE_URL and CRAWL_CATEGORIES overrides and validates
// the result. An empty path uses the defaults only. Unknown keys are errors.
// The path parameter is expected to come from a trusted source (env or CLI flag).
func LoadCrawlConfig(path string) (*CrawlConfig, error) {
	cfg := DefaultCrawlConfig()

	if path != "" {
		// #nosec G304 -- path is provided by the operator, not user input
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *CrawlConfig) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *CrawlConfig) applyEnvOverrides() {
	c.Render.Endpoint = pkgconfig.LoadEnvString("RENDER_ENDPOINT", c.Render.Endpoint)
	c.Site.BaseURL = pkgconfig.LoadEnvString("SITE_BASE_URL", c.Site.BaseURL)

	result := pkgconfig.LoadEnvList("CRAWL_CATEGORIES", nil, nil)
	c.Warnings = append(c.Warnings, result.Warnings...)
	if categories, _ := result.Value.([]string); len(categories) > 0 {
		byCategory := make(map[string]TargetConfig, len(c.Targets))
		for _, t := range c.Targets {
			byCategory[t.Category] = t
		}
		targets := make([]TargetConfig, 0, len(categories))
		for _, cat := range categories {
			t, ok := byCategory[cat]
			if !ok {
				t = TargetConfig{Category: cat}
			}
			targets = append(targets, t)
		}
		c.Targets = targets
	}
}

// Validate checks every section. Errors name the offending key.
func (c *CrawlConfig) Validate() error {
	if err := pkgconfig.ValidateHTTPURL(c.Site.BaseURL); err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if !strings.Contains(c.Site.OverviewPath, entity.CategoryPlaceholder) {
		return fmt.Errorf("site.overview_path must contain %s", entity.CategoryPlaceholder)
	}

	if len(c.Targets) == 0 {
		return errors.New("targets: at least one category is required")
	}
	seen := make(map[string]bool, len(c.Targets))
	for _, t := range c.CrawlTargets() {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("targets[%s]: %w", t.Category, err)
		}
		if seen[t.Category] {
			return fmt.Errorf("targets: duplicate category %q", t.Category)
		}
		seen[t.Category] = true
	}

	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	if err := c.Render.Config.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if c.Render.OverviewWait < 0 || c.Render.ArticleWait < 0 {
		return errors.New("render: wait must not be negative")
	}
	if c.Render.Timeout > 0 && (c.Render.OverviewWait >= c.Render.Timeout || c.Render.ArticleWait >= c.Render.Timeout) {
		return errors.New("render: wait must be shorter than timeout")
	}
	return nil
}

// CrawlTargets builds the targets in configuration order.
func (c *CrawlConfig) CrawlTargets() []entity.CrawlTarget {
	template := strings.TrimRight(c.Site.BaseURL, "/") + c.Site.OverviewPath
	targets := make([]entity.CrawlTarget, 0, len(c.Targets))
	for _, t := range c.Targets {
		tmpl := template
		if t.OverviewURL != "" {
			tmpl = t.OverviewURL
		}
		targets = append(targets, entity.CrawlTarget{
			Category:    strings.TrimSpace(t.Category),
			URLTemplate: tmpl,
		})
	}
	return targets
}
