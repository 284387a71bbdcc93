package record

import (
	"net/http"

	"newscrawl/internal/handler/http/respond"
	recordUC "newscrawl/internal/usecase/record"
)

// LookupHandler serves GET /records/lookup?url=.
type LookupHandler struct{ Svc *recordUC.Service }

func (h LookupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Svc.Get(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toRecordDTO(rec))
}

// SeenHandler serves GET /seen?url=.
type SeenHandler struct{ Svc *recordUC.Service }

func (h SeenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	seen, err := h.Svc.IsSeen(r.Context(), url)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, SeenResponse{URL: url, Seen: seen})
}
