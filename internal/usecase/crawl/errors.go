// Package crawl runs crawl cycles: discover candidate links for each target,
// drop the ones already seen, then render, extract, persist and mark each new
// article while recording a run log entry per target.
package crawl

import (
	"errors"
	"fmt"

	"newscrawl/internal/resilience/retry"
)

// Sentinel errors for crawl operations.
var (
	// ErrNoTargets indicates that a service was configured without targets.
	ErrNoTargets = errors.New("no crawl targets configured")
)

// RenderErrorKind classifies render failures.
type RenderErrorKind int

const (
	// RenderUnreachable means the render service could not be reached or
	// refused the call.
	RenderUnreachable RenderErrorKind = iota + 1
	// RenderTimeout means the render did not finish within the bounded timeout.
	RenderTimeout
	// RenderNonSuccessStatus means the service answered with a non-2xx status.
	RenderNonSuccessStatus
)

func (k RenderErrorKind) String() string {
	switch k {
	case RenderUnreachable:
		return "unreachable"
	case RenderTimeout:
		return "timeout"
	case RenderNonSuccessStatus:
		return "non_success_status"
	default:
		return "unknown"
	}
}

// RenderError is returned by renderers when a page cannot be rendered.
type RenderError struct {
	Kind       RenderErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("render %s: %s", e.URL, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying the render may succeed.
func (e *RenderError) Transient() bool {
	switch e.Kind {
	case RenderUnreachable, RenderTimeout:
		return true
	case RenderNonSuccessStatus:
		return retry.IsRetryableStatus(e.StatusCode)
	default:
		return false
	}
}

// IsTransient reports whether err is worth retrying. Errors that are not
// RenderErrors are classified by retry.IsRetryable.
func IsTransient(err error) bool {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Transient()
	}
	return retry.IsRetryable(err)
}

// IsPermanent reports whether err is a render failure that will not go away,
// such as a 404 for the page. Such URLs get a failed record.
func IsPermanent(err error) bool {
	var re *RenderError
	return errors.As(err, &re) && !re.Transient()
}

// StoreError is a durable storage failure while processing one URL.
type StoreError struct {
	Op  string
	URL string
	Err error
}

func (e *StoreError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
