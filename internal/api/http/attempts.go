package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/coursehub/coursehub-lms/internal/auth/middleware"
	"github.com/coursehub/coursehub-lms/internal/exam"
)

// POST /courses/{courseID}/exams/{examID}/attempts
// Body: { "resume_attempt_id": "..." } (optional). Without it a fresh attempt
// is started; 409 if one is already in progress, 400 with the first access
// blocker if the caller is not eligible.
func StartAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		examID := chi.URLParam(r, "examID")

		var req struct {
			ResumeAttemptID string `json:"resume_attempt_id"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}

		view, err := svc.CreateOrResume(r.Context(), userID, courseID, examID, req.ResumeAttemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusCreated
		if req.ResumeAttemptID != "" {
			status = http.StatusOK
		}
		writeJSON(w, status, view)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		attemptID := chi.URLParam(r, "attemptID")
		view, err := svc.GetAttempt(r.Context(), userID, attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// PATCH /attempts/{attemptID}/answers
// Upserts one answer; an empty selected_option_id clears the selection.
func SaveAnswerHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		attemptID := chi.URLParam(r, "attemptID")

		var upd exam.AnswerUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := svc.SaveAnswer(r.Context(), userID, attemptID, upd); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	}
}

// POST /attempts/{attemptID}/submit
// Idempotent: re-submitting a graded attempt returns the same result.
func SubmitAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		attemptID := chi.URLParam(r, "attemptID")
		res, err := svc.Submit(r.Context(), userID, attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
