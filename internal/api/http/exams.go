package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/coursehub/coursehub-lms/internal/auth/middleware"
	"github.com/coursehub/coursehub-lms/internal/exam"
)

// GET /courses/{courseID}/exams
func ListExamsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		list, err := svc.ListCourseExams(r.Context(), courseID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exams": list})
	}
}

// GET /courses/{courseID}/exams/{examID}
// Pre-start overview: exam metadata plus the caller's access decision.
func ExamOverviewHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		examID := chi.URLParam(r, "examID")
		ov, err := svc.Overview(r.Context(), userID, courseID, examID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ov)
	}
}
