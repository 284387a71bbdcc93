// Package record serves the read API over crawl results: article records,
// seen-set membership and the run log.
package record

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"newscrawl/internal/handler/http/respond"
	recordUC "newscrawl/internal/usecase/record"
)

// Register mounts the record routes on mux.
func Register(mux *http.ServeMux, svc *recordUC.Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	mux.Handle("GET /records", ListHandler{Svc: svc, Logger: logger})
	mux.Handle("GET /records/lookup", LookupHandler{Svc: svc})
	mux.Handle("GET /seen", SeenHandler{Svc: svc})
	mux.Handle("GET /runs", RunsHandler{Svc: svc})
}

// parseLimit reads the "limit" query parameter. A missing value yields 0,
// which the use case replaces with its default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, recordUC.ErrInvalidLimit
	}
	return limit, nil
}

// statusFor maps use case errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, recordUC.ErrInvalidLimit),
		errors.Is(err, recordUC.ErrInvalidURL),
		errors.Is(err, recordUC.ErrInvalidCategory):
		return http.StatusBadRequest
	case errors.Is(err, recordUC.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	respond.SafeError(w, statusFor(err), err)
}
