package render

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default values for Config.
const (
	DefaultMethod            = http.MethodGet
	DefaultTimeout           = 60 * time.Second
	DefaultRequestsPerSecond = 2.0
	DefaultBurst             = 4
	DefaultMaxBodySize       = 10 * 1024 * 1024
	DefaultUserAgent         = "newscrawl/1.0"
)

// Config configures the render client.
type Config struct {
	// Endpoint is the base URL of the render service, e.g. http://localhost:8050.
	Endpoint string `yaml:"endpoint"`

	// Method and Body are forwarded to the service and used for the page request.
	Method string `yaml:"method"`
	Body   string `yaml:"body"`

	// Timeout bounds a single render, including the wait time.
	Timeout time.Duration `yaml:"timeout"`

	// RequestsPerSecond and Burst pace calls to the service.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	MaxBodySize int64  `yaml:"-"`
	UserAgent   string `yaml:"-"`
}

// DefaultConfig returns a Config for a Splash instance on localhost.
func DefaultConfig() Config {
	return Config{
		Endpoint:          "http://localhost:8050",
		Method:            DefaultMethod,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultBurst,
		MaxBodySize:       DefaultMaxBodySize,
		UserAgent:         DefaultUserAgent,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Method == "" {
		c.Method = d.Method
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = d.Burst
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = d.MaxBodySize
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	c.Method = strings.ToUpper(c.Method)
	return c
}

// Validate checks the endpoint and method.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("render endpoint is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid render endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid render endpoint %q: must be an absolute http(s) URL", c.Endpoint)
	}
	switch strings.ToUpper(c.Method) {
	case "", http.MethodGet, http.MethodPost:
	default:
		return fmt.Errorf("unsupported render method %q", c.Method)
	}
	if c.Timeout < 0 {
		return errors.New("render timeout must not be negative")
	}
	return nil
}
