package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"newscrawl/internal/observability/metrics"
)

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"GET /records":        "/records",
		"GET /records/lookup": "/records/lookup",
		"/metrics":            "/metrics",
		"":                    unmatchedRoute,
	}
	for pattern, want := range tests {
		assert.Equal(t, want, routeLabel(pattern), pattern)
	}
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /records/lookup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := Metrics(mux)

	okBefore := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/records/lookup", "404"))
	unmatchedBefore := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))

	for _, target := range []string{
		"/records/lookup?url=https%3A%2F%2Fwww.nu.nl%2Fa",
		"/records/lookup?url=https%3A%2F%2Fwww.nu.nl%2Fb",
	} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/no/such/route/123", nil))

	assert.Equal(t, okBefore+2, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/records/lookup", "404")))
	assert.Equal(t, unmatchedBefore+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.HTTPRequestsInFlight))
}
