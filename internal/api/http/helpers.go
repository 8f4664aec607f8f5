package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/coursehub/coursehub-lms/internal/exam"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the engine's typed errors onto status codes. Internal
// failures are logged server-side and never leak their message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch exam.KindOf(err) {
	case exam.KindNotFound:
		status, msg = http.StatusNotFound, err.Error()
	case exam.KindForbidden:
		status, msg = http.StatusForbidden, err.Error()
	case exam.KindInvalidState:
		status, msg = http.StatusBadRequest, err.Error()
	case exam.KindConflict:
		status, msg = http.StatusConflict, err.Error()
	default:
		log.Printf("http: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
