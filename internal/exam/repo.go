package exam

import (
	"context"
	"time"
)

// CatalogStore reads the immutable quiz bank. No side effects; safe to cache.
type CatalogStore interface {
	// GetQuiz returns the quiz scoped to a course, or NotFound if the quiz
	// does not belong to that course.
	GetQuiz(ctx context.Context, courseID, quizID string) (Quiz, error)
	// QuizByID looks a quiz up without course scoping (internal use: an
	// attempt already pins its quiz).
	QuizByID(ctx context.Context, quizID string) (Quiz, error)
	ListQuizzes(ctx context.Context, courseID string) ([]ExamSummary, error)
	// QuizQuestions returns questions in canonical order (sort_order, id)
	// with options in canonical order, correctness flags included.
	QuizQuestions(ctx context.Context, quizID string) ([]Question, error)
	QuestionStats(ctx context.Context, quizID string) (QuestionStats, error)
	// HasOption reports whether the option belongs to the question.
	HasOption(ctx context.Context, questionID, optionID string) (bool, error)
}

// AttemptStore owns attempt, frozen-item and answer rows.
type AttemptStore interface {
	// CreateAttempt persists the attempt and its frozen items atomically.
	// Returns Conflict if the learner already has an in_progress attempt on
	// this quiz (enforced by a storage-level uniqueness guarantee, not a
	// read-then-write check).
	CreateAttempt(ctx context.Context, a Attempt, items []AttemptItem) error
	GetAttempt(ctx context.Context, attemptID string) (Attempt, error)
	AttemptItems(ctx context.Context, attemptID string) ([]AttemptItem, error)
	HasItem(ctx context.Context, attemptID, questionID string) (bool, error)

	// UpsertAnswer inserts or updates the (attempt, question) answer row
	// atomically.
	UpsertAnswer(ctx context.Context, ans Answer) error
	UpdateTracking(ctx context.Context, attemptID, lastSeenQuestionID string, at time.Time) error
	Answers(ctx context.Context, attemptID string) (map[string]Answer, error)
	ApplyAnswerResult(ctx context.Context, attemptID, questionID string, correct bool, points float64) error

	// FinalizeAttempt transitions the attempt to its terminal graded state.
	FinalizeAttempt(ctx context.Context, a Attempt) error

	CountAttempts(ctx context.Context, quizID, userID string) (int, error)
	// ActiveAttemptID returns "" when no attempt is in_progress.
	ActiveAttemptID(ctx context.Context, quizID, userID string) (string, error)
	// LastFinishedAt is COALESCE(finished_at, ends_at) of the most recent
	// terminal attempt, or nil if none.
	LastFinishedAt(ctx context.Context, quizID, userID string) (*time.Time, error)
	// LatestPassedAttempt returns the most recently graded passing attempt
	// for any quiz of the course, or "" if none.
	LatestPassedAttempt(ctx context.Context, courseID, userID string) (string, error)
}

// EnrollmentStore is the engine's window onto enrollment state. Reads drive
// access checks; the only writes are the gate's active/revoked transitions.
type EnrollmentStore interface {
	// Status returns (status, true) for an enrolled learner, ("", false)
	// otherwise.
	Status(ctx context.Context, userID, courseID string) (string, bool, error)
	SetStatus(ctx context.Context, userID, courseID, status string) error
}

// CertificateStore owns certificates and prerequisite lookups.
type CertificateStore interface {
	Find(ctx context.Context, courseID, userID string) (Certificate, bool, error)
	// Create is idempotent: if a certificate already exists for the
	// (course, learner) pair, the existing one is returned with created=false.
	Create(ctx context.Context, cert Certificate) (Certificate, bool, error)
	HasCertificate(ctx context.Context, userID, courseID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]CertificateSummary, error)
	// ListPrerequisites resolves the course's prerequisites with met-status
	// for the learner (met iff a certificate for the required course is held).
	ListPrerequisites(ctx context.Context, courseID, userID string) ([]PrerequisiteStatus, error)
}

// ProgressTracker is the external lesson-progress collaborator.
type ProgressTracker interface {
	MarkLessonCompleted(ctx context.Context, userID, lessonID string) error
}

// EventSink receives domain events (attempt started/graded, certificate
// issued, enrollment revoked). Optional; a nil sink disables recording.
type EventSink interface {
	Append(ctx context.Context, typ, key string, payload any) error
}
