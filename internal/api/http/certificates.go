package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/coursehub/coursehub-lms/internal/auth/middleware"
	"github.com/coursehub/coursehub-lms/internal/exam"
)

// POST /courses/{courseID}/certificate
// Idempotent claim: 201 when a certificate is issued, 200 when it already
// existed, 400 when no passing attempt backs one.
func ClaimCertificateHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		claim, err := svc.EnsureCertificate(r.Context(), userID, courseID)
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if claim.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, claim)
	}
}

// GET /certificates
func ListCertificatesHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		list, err := svc.ListCertificates(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"certificates": list})
	}
}
