package record

import (
	"log/slog"
	"net/http"
	"time"

	"newscrawl/internal/handler/http/respond"
	"newscrawl/internal/observability/logging"
	recordUC "newscrawl/internal/usecase/record"
)

// ListHandler serves GET /records?category=&limit=.
type ListHandler struct {
	Svc    *recordUC.Service
	Logger *slog.Logger
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	logger := logging.WithRequestID(ctx, h.Logger)

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, err)
		return
	}
	category := r.URL.Query().Get("category")

	records, err := h.Svc.List(ctx, category, limit)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			logger.Error("failed to list records",
				slog.String("category", category),
				slog.String("error", logging.SanitizeError(err)))
		}
		writeError(w, err)
		return
	}

	out := ListResponse{
		Category: category,
		Count:    len(records),
		Records:  make([]RecordDTO, 0, len(records)),
	}
	for _, rec := range records {
		out.Records = append(out.Records, toRecordDTO(rec))
	}

	logger.Debug("records listed",
		slog.String("category", category),
		slog.Int("count", out.Count),
		slog.Duration("duration", time.Since(start)))
	respond.JSON(w, http.StatusOK, out)
}
