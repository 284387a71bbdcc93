package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newscrawl/internal/handler/http/responsewriter"
	"newscrawl/internal/observability/metrics"
)

// unmatchedRoute labels requests that no route pattern matched, keeping the
// path label bounded.
const unmatchedRoute = "unmatched"

// routeLabel strips the method from a ServeMux pattern ("GET /records"
// becomes "/records").
func routeLabel(pattern string) string {
	if pattern == "" {
		return unmatchedRoute
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return strings.TrimSpace(path)
	}
	return pattern
}

// Metrics wraps a *http.ServeMux and records request count, latency and
// in-flight requests labelled by route pattern.
func Metrics(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		_, pattern := mux.Handler(r)
		route := routeLabel(pattern)

		rw := responsewriter.Wrap(w)
		start := time.Now()
		mux.ServeHTTP(rw, r)

		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rw.StatusCode()), time.Since(start))
	})
}

// MetricsHandler serves the Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
