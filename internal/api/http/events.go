package http

import (
	"net/http"
	"strconv"

	"github.com/coursehub/coursehub-lms/internal/eventlog"
)

// GET /events?limit=N
// Admin-only audit trail: most recent domain events, newest first.
func ListEventsHandler(repo *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		events, err := repo.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}
