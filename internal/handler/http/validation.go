package http

import (
	"net/http"
)

const (
	maxPathLength  = 2048
	maxQueryLength = 4096
)

// InputValidation rejects oversized paths and query strings before routing.
// The read API accepts no request bodies, so bodies are capped at zero bytes.
func InputValidation() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.Path) > maxPathLength || len(r.URL.RawQuery) > maxQueryLength {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestURITooLong)
				_, _ = w.Write([]byte(`{"error":"URI too long"}`))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, 0)
			next.ServeHTTP(w, r)
		})
	}
}
