package exam

import "time"

const (
	StatusInProgress = "in_progress"
	StatusGraded     = "graded"
)

const (
	ReviewScoreOnly = "score_only"
	ReviewFull      = "full"
)

const (
	EnrollmentActive  = "active"
	EnrollmentLocked  = "locked"
	EnrollmentRevoked = "revoked"
)

// Quiz is the immutable exam configuration, joined with its course for
// display. TimeLimitSec == 0 means the limit is derived from question count.
type Quiz struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	LessonID    string `json:"lesson_id,omitempty"` // gating lesson, optional
	CourseSlug  string `json:"course_slug,omitempty"`
	CourseTitle string `json:"course_title,omitempty"`

	Title        string `json:"title"`
	Instructions string `json:"instructions,omitempty"`

	TimeLimitSec        int        `json:"time_limit_sec,omitempty"`
	Shuffle             bool       `json:"shuffle"`
	PassingScore        float64    `json:"passing_score"`
	ReviewPolicy        string     `json:"review_policy"`
	WindowStart         *time.Time `json:"attempt_window_start,omitempty"`
	WindowEnd           *time.Time `json:"attempt_window_end,omitempty"`
	AutoSubmitGraceSec  int        `json:"auto_submit_grace_sec"`
	RetakeCooldownMin   int        `json:"retake_cooldown_minutes,omitempty"`
}

type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	Correct    bool   `json:"-"` // never serialized to learners
	SortOrder  int    `json:"-"`
}

type Question struct {
	ID        string   `json:"id"`
	QuizID    string   `json:"quiz_id"`
	Text      string   `json:"text"`
	Points    float64  `json:"points"`
	SortOrder int      `json:"-"`
	Options   []Option `json:"options"`
}

type QuestionStats struct {
	Count       int
	TotalPoints float64
}

// Attempt is one timed run of a learner through a quiz.
type Attempt struct {
	ID     string `json:"id"`
	QuizID string `json:"quiz_id"`
	UserID string `json:"user_id"`
	Status string `json:"status"` // in_progress|graded

	StartedAt  time.Time  `json:"started_at"`
	EndsAt     time.Time  `json:"ends_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	GradedAt   *time.Time `json:"graded_at,omitempty"`

	LastSeenQuestionID string     `json:"last_seen_question_id,omitempty"`
	LastSavedAt        *time.Time `json:"last_saved_at,omitempty"`

	TimeLimitSec int   `json:"time_limit_sec"`
	Seed         int64 `json:"-"`

	Score       *float64 `json:"score,omitempty"` // percentage
	Passed      *bool    `json:"passed,omitempty"`
	TotalPoints *float64 `json:"total_points,omitempty"`
	MaxPoints   float64  `json:"max_points"`
}

// AttemptItem freezes one question's place in an attempt: its display order
// and the order its options were dealt in. Captured at creation, never
// rewritten, so resume and review always show the same layout.
type AttemptItem struct {
	AttemptID    string
	QuestionID   string
	DisplayOrder int
	OptionOrder  []string // option IDs in frozen display order
}

// Answer is the learner's saved state for one question; at most one row per
// (attempt, question). Correctness and points are populated at grading.
type Answer struct {
	AttemptID        string
	QuestionID       string
	SelectedOptionID string // "" when cleared/unanswered
	MarkedForReview  bool
	IsCorrect        *bool
	PointsAwarded    *float64
}

type PrerequisiteStatus struct {
	CourseID    string `json:"course_id"`
	CourseTitle string `json:"course_title"`
	Met         bool   `json:"met"`
}

// AccessDecision is the Access Evaluator's verdict. Blockers accumulate: all
// checks run so a client can show every reason at once.
type AccessDecision struct {
	Enrolled        bool                 `json:"enrolled"`
	CanAttempt      bool                 `json:"can_attempt"`
	Blockers        []string             `json:"blockers"`
	Prerequisites   []PrerequisiteStatus `json:"prerequisites"`
	AttemptsUsed    int                  `json:"attempts_used"` // clamped to the ceiling for display
	ActiveAttemptID string               `json:"active_attempt_id,omitempty"`
	LastFinishedAt  *time.Time           `json:"last_finished_at,omitempty"`
}

type ExamSummary struct {
	ID            string  `json:"id"`
	CourseID      string  `json:"course_id"`
	Title         string  `json:"title"`
	TimeLimitSec  int     `json:"time_limit_sec,omitempty"`
	MaxAttempts   int     `json:"max_attempts"`
	PassingScore  float64 `json:"passing_score"`
	QuestionCount int     `json:"question_count"`
}

// Overview is the pre-start screen: quiz metadata plus the access decision,
// with no questions.
type Overview struct {
	ExamID      string `json:"exam_id"`
	CourseID    string `json:"course_id"`
	CourseSlug  string `json:"course_slug,omitempty"`
	CourseTitle string `json:"course_title,omitempty"`
	Title       string `json:"title"`

	Instructions      string     `json:"instructions,omitempty"`
	ReviewPolicy      string     `json:"review_policy"`
	TimeLimitSec      int        `json:"time_limit_sec,omitempty"`
	QuestionCount     int        `json:"question_count"`
	PassingScore      float64    `json:"passing_score"`
	WindowStart       *time.Time `json:"attempt_window_start,omitempty"`
	WindowEnd         *time.Time `json:"attempt_window_end,omitempty"`
	AutoSubmitGrace   int        `json:"auto_submit_grace_sec"`
	RetakeCooldownMin int        `json:"retake_cooldown_minutes,omitempty"`

	MaxAttempts       int `json:"max_attempts"`
	AttemptsUsed      int `json:"attempts_used"`
	AttemptsRemaining int `json:"attempts_remaining"`

	Enrolled        bool                 `json:"enrolled"`
	CanAttempt      bool                 `json:"can_attempt"`
	Blockers        []string             `json:"blockers"`
	Prerequisites   []PrerequisiteStatus `json:"prerequisites"`
	ActiveAttemptID string               `json:"active_attempt_id,omitempty"`
	LastFinishedAt  *time.Time           `json:"last_attempt_finished_at,omitempty"`
}

type AttemptOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type AttemptQuestion struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Points           float64         `json:"points"`
	Options          []AttemptOption `json:"options"`
	SelectedOptionID string          `json:"selected_option_id,omitempty"`
	MarkedForReview  bool            `json:"marked_for_review"`
}

// AttemptView is the learner-facing projection of an attempt. For terminal
// attempts under a score_only review policy the question list is empty.
type AttemptView struct {
	AttemptID   string `json:"attempt_id"`
	ExamID      string `json:"exam_id"`
	CourseID    string `json:"course_id"`
	ExamTitle   string `json:"exam_title"`
	Status      string `json:"status"`

	TimeLimitSec int        `json:"time_limit_sec"`
	CountdownSec int        `json:"countdown_sec"`
	StartedAt    time.Time  `json:"started_at"`
	EndsAt       time.Time  `json:"ends_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`

	Score        *float64 `json:"score,omitempty"`
	Passed       *bool    `json:"passed,omitempty"`
	PassingScore float64  `json:"passing_score"`

	LastSeenQuestionID string            `json:"last_seen_question_id,omitempty"`
	ReviewEnabled      bool              `json:"review_enabled"`
	QuestionCount      int               `json:"question_count"`
	Questions          []AttemptQuestion `json:"questions"`
}

type SubmitResult struct {
	AttemptID string `json:"attempt_id"`
	Status    string `json:"status"`

	ScorePercent float64 `json:"score_percent"`
	TotalPoints  float64 `json:"total_points"`
	MaxPoints    float64 `json:"max_points"`
	Passed       bool    `json:"passed"`
	PassingScore float64 `json:"passing_score"`

	AttemptsUsed      int  `json:"attempts_used"`
	AttemptsAllowed   int  `json:"attempts_allowed"`
	AttemptsRemaining int  `json:"attempts_remaining"`
	Locked            bool `json:"locked"`

	FinishedAt *time.Time `json:"finished_at,omitempty"`
	GradedAt   *time.Time `json:"graded_at,omitempty"`

	Message string `json:"message,omitempty"`
}

// Certificate records a passed course; at most one per (course, learner).
type Certificate struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	UserID    string    `json:"user_id"`
	AttemptID string    `json:"attempt_id,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
}

type CertificateClaim struct {
	Certificate Certificate `json:"certificate"`
	Created     bool        `json:"created"`
}

type CertificateSummary struct {
	ID           string     `json:"id"`
	CourseID     string     `json:"course_id"`
	CourseTitle  string     `json:"course_title"`
	AttemptID    string     `json:"attempt_id,omitempty"`
	ScorePercent *float64   `json:"score_percent,omitempty"`
	IssuedAt     *time.Time `json:"issued_at,omitempty"`
}

// AnswerUpdate is the single-answer save payload.
type AnswerUpdate struct {
	QuestionID         string `json:"question_id"`
	SelectedOptionID   string `json:"selected_option_id,omitempty"`
	MarkedForReview    bool   `json:"marked_for_review,omitempty"`
	LastSeenQuestionID string `json:"last_seen_question_id,omitempty"`
}
