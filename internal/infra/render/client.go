// Package render talks to a Splash-compatible rendering service. The service
// loads a page in a headless browser, waits for client-side rendering to
// settle and returns the resulting HTML.
//
// The client does not retry. Failures are returned as *crawl.RenderError so the
// caller can tell transient failures from permanent ones.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"newscrawl/internal/observability/metrics"
	"newscrawl/internal/observability/tracing"
	"newscrawl/internal/resilience/circuitbreaker"
	"newscrawl/internal/usecase/crawl"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html/charset"
)

// ErrBodyTooLarge is wrapped when a rendered page exceeds the size limit.
var ErrBodyTooLarge = errors.New("rendered page exceeds size limit")

// clientGrace is added to the service timeout so that the service reports
// its own timeout before the HTTP client gives up.
const clientGrace = 5 * time.Second

// renderRequest is the JSON body of a render.html call.
type renderRequest struct {
	URL                     string  `json:"url"`
	HTTPMethod              string  `json:"http_method"`
	Body                    string  `json:"body,omitempty"`
	Wait                    float64 `json:"wait"`
	Timeout                 float64 `json:"timeout"`
	HTTPStatusFromErrorCode bool    `json:"http_status_from_error_code"`
}

// Client renders pages through the service. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	limiter    *limiter
	cfg        Config
	renderURL  string
}

// NewClient creates a Client. Zero fields of cfg take their defaults.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	cbConfig := circuitbreaker.RenderServiceConfig()
	// A 404 for an article is an answer, not a sign the service is down.
	cbConfig.IsSuccessful = func(err error) bool {
		return err == nil || crawl.IsPermanent(err)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		breaker:   circuitbreaker.New(cbConfig),
		limiter:   newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		cfg:       cfg,
		renderURL: strings.TrimRight(cfg.Endpoint, "/") + "/render.html",
	}, nil
}

// Fetch renders pageURL and returns its HTML. wait is the minimum settle time
// the service waits before taking the snapshot.
func (c *Client) Fetch(ctx context.Context, pageURL string, wait time.Duration) (string, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "render.fetch",
		attribute.String("url", pageURL),
		attribute.Float64("render.wait_seconds", wait.Seconds()))

	html, err := c.fetch(ctx, pageURL, wait)

	outcome := outcomeOf(err)
	metrics.RecordRender(outcome, time.Since(start), len(html))
	span.SetAttributes(attribute.String("render.outcome", outcome))
	tracing.EndSpan(span, err)

	if err != nil {
		slog.Debug("render failed",
			slog.String("url", pageURL),
			slog.String("outcome", outcome),
			slog.Any("error", err))
		return "", err
	}
	return html, nil
}

func (c *Client) fetch(ctx context.Context, pageURL string, wait time.Duration) (string, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return "", classifyTransportError(pageURL, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRender(ctx, pageURL, wait)
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			return "", &crawl.RenderError{Kind: crawl.RenderUnreachable, URL: pageURL, Err: err}
		}
		return "", err
	}
	return result.(string), nil
}

func (c *Client) doRender(ctx context.Context, pageURL string, wait time.Duration) (string, error) {
	payload, err := json.Marshal(renderRequest{
		URL:                     pageURL,
		HTTPMethod:              c.cfg.Method,
		Body:                    c.cfg.Body,
		Wait:                    wait.Seconds(),
		Timeout:                 c.cfg.Timeout.Seconds(),
		HTTPStatusFromErrorCode: true,
	})
	if err != nil {
		return "", fmt.Errorf("encode render request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout+clientGrace)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.renderURL, bytes.NewReader(payload))
	if err != nil {
		return "", &crawl.RenderError{Kind: crawl.RenderUnreachable, URL: pageURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(pageURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusGatewayTimeout {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &crawl.RenderError{Kind: crawl.RenderTimeout, URL: pageURL, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &crawl.RenderError{Kind: crawl.RenderNonSuccessStatus, URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodySize+1))
	if err != nil {
		return "", classifyTransportError(pageURL, err)
	}
	if int64(len(body)) > c.cfg.MaxBodySize {
		return "", &crawl.RenderError{
			Kind:       crawl.RenderNonSuccessStatus,
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.cfg.MaxBodySize),
		}
	}

	return decode(body, resp.Header.Get("Content-Type")), nil
}

// decode converts body to UTF-8 using the declared or sniffed charset.
func decode(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

func classifyTransportError(pageURL string, err error) error {
	kind := crawl.RenderUnreachable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = crawl.RenderTimeout
	}
	return &crawl.RenderError{Kind: kind, URL: pageURL, Err: err}
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.RenderOK
	}
	if circuitbreaker.IsRejected(err) {
		return metrics.RenderRejected
	}
	var re *crawl.RenderError
	if !errors.As(err, &re) {
		return metrics.RenderUnreachable
	}
	switch re.Kind {
	case crawl.RenderTimeout:
		return metrics.RenderTimeout
	case crawl.RenderNonSuccessStatus:
		return metrics.RenderStatusOutcome(re.StatusCode)
	default:
		return metrics.RenderUnreachable
	}
}
