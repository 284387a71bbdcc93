package render

import (
	"context"

	"golang.org/x/time/rate"
)

// limiter paces calls to the render service with a token bucket. Up to burst
// calls go through at once, then tokens refill at requestsPerSecond.
type limiter struct {
	limiter *rate.Limiter
}

func newLimiter(requestsPerSecond float64, burst int) *limiter {
	return &limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// wait blocks until a token is available or ctx is done.
func (l *limiter) wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
