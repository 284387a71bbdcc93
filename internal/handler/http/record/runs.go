package record

import (
	"net/http"

	"newscrawl/internal/handler/http/respond"
	recordUC "newscrawl/internal/usecase/record"
)

// RunsHandler serves GET /runs?limit=, newest cycle first.
type RunsHandler struct{ Svc *recordUC.Service }

func (h RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.Svc.RecentRuns(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := RunsResponse{Count: len(entries), Runs: make([]RunDTO, 0, len(entries))}
	for _, e := range entries {
		out.Runs = append(out.Runs, toRunDTO(e))
	}
	respond.JSON(w, http.StatusOK, out)
}
