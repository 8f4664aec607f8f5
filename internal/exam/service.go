package exam

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Service is the exam-attempt engine: it turns a quiz definition into a
// graded, time-boxed, retry-limited attempt and gates enrollment and
// certification on the outcome. All state transitions are driven
// synchronously by learner actions; there is no background scheduler.
type Service struct {
	catalog     CatalogStore
	attempts    AttemptStore
	enrollments EnrollmentStore
	certs       CertificateStore
	progress    ProgressTracker
	events      EventSink

	hardMaxAttempts     int
	secondsPerQuestion  int
	minTimeLimitSec     int
	defaultPassingScore float64

	now   func() time.Time
	newID func() string

	eval *Evaluator
	gate *Gate
}

type ServiceOption func(*Service)

// WithHardMaxAttempts overrides the system-wide attempt ceiling.
func WithHardMaxAttempts(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.hardMaxAttempts = n
		}
	}
}

// WithTimeLimitPolicy tunes the derived time limit used when a quiz has none
// configured: perQuestionSec per question, never below minSec.
func WithTimeLimitPolicy(perQuestionSec, minSec int) ServiceOption {
	return func(s *Service) {
		if perQuestionSec > 0 {
			s.secondsPerQuestion = perQuestionSec
		}
		if minSec > 0 {
			s.minTimeLimitSec = minSec
		}
	}
}

// WithDefaultPassingScore sets the pass threshold used by quizzes that do
// not configure one.
func WithDefaultPassingScore(pct float64) ServiceOption {
	return func(s *Service) {
		if pct > 0 {
			s.defaultPassingScore = pct
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(gen func() string) ServiceOption {
	return func(s *Service) { s.newID = gen }
}

func WithEventSink(sink EventSink) ServiceOption {
	return func(s *Service) { s.events = sink }
}

func NewService(catalog CatalogStore, attempts AttemptStore, enrollments EnrollmentStore, certs CertificateStore, progress ProgressTracker, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:     catalog,
		attempts:    attempts,
		enrollments: enrollments,
		certs:       certs,
		progress:    progress,

		hardMaxAttempts:     2,
		secondsPerQuestion:  60,
		minTimeLimitSec:     300,
		defaultPassingScore: 50,

		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	s.eval = &Evaluator{
		Enrollments:     enrollments,
		Certificates:    certs,
		Attempts:        attempts,
		HardMaxAttempts: s.hardMaxAttempts,
		Now:             s.now,
	}
	s.gate = &Gate{
		Enrollments:  enrollments,
		Certificates: certs,
		Progress:     progress,
		Events:       s.events,
		Now:          s.now,
		NewID:        s.newID,
	}
	return s
}

// ListCourseExams returns exam summaries for a course. The advertised
// max-attempts is always the hard ceiling, regardless of per-quiz config.
func (s *Service) ListCourseExams(ctx context.Context, courseID string) ([]ExamSummary, error) {
	list, err := s.catalog.ListQuizzes(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].MaxAttempts = s.hardMaxAttempts
		if list[i].PassingScore <= 0 {
			list[i].PassingScore = s.defaultPassingScore
		}
	}
	return list, nil
}

// Overview combines quiz metadata with the learner's access decision. No
// questions are exposed.
func (s *Service) Overview(ctx context.Context, userID, courseID, quizID string) (Overview, error) {
	quiz, err := s.catalog.GetQuiz(ctx, courseID, quizID)
	if err != nil {
		return Overview{}, err
	}
	access, err := s.eval.Evaluate(ctx, quiz, userID)
	if err != nil {
		return Overview{}, err
	}
	stats, err := s.catalog.QuestionStats(ctx, quiz.ID)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		ExamID:      quiz.ID,
		CourseID:    quiz.CourseID,
		CourseSlug:  quiz.CourseSlug,
		CourseTitle: quiz.CourseTitle,
		Title:       quiz.Title,

		Instructions:      quiz.Instructions,
		ReviewPolicy:      quiz.ReviewPolicy,
		TimeLimitSec:      quiz.TimeLimitSec,
		QuestionCount:     stats.Count,
		PassingScore:      s.passingScore(quiz),
		WindowStart:       quiz.WindowStart,
		WindowEnd:         quiz.WindowEnd,
		AutoSubmitGrace:   quiz.AutoSubmitGraceSec,
		RetakeCooldownMin: quiz.RetakeCooldownMin,

		MaxAttempts:       s.hardMaxAttempts,
		AttemptsUsed:      access.AttemptsUsed,
		AttemptsRemaining: maxInt(0, s.hardMaxAttempts-access.AttemptsUsed),

		Enrolled:        access.Enrolled,
		CanAttempt:      access.CanAttempt,
		Blockers:        access.Blockers,
		Prerequisites:   access.Prerequisites,
		ActiveAttemptID: access.ActiveAttemptID,
		LastFinishedAt:  access.LastFinishedAt,
	}, nil
}

// CreateOrResume starts a new attempt, or returns an existing one when
// resumeAttemptID is given. A new attempt re-runs the access evaluation and
// freezes the (possibly shuffled) question and option order under a stored
// seed.
func (s *Service) CreateOrResume(ctx context.Context, userID, courseID, quizID, resumeAttemptID string) (AttemptView, error) {
	quiz, err := s.catalog.GetQuiz(ctx, courseID, quizID)
	if err != nil {
		return AttemptView{}, err
	}

	if resumeAttemptID != "" {
		a, err := s.loadOwnedAttempt(ctx, resumeAttemptID, userID)
		if err != nil {
			return AttemptView{}, err
		}
		if a.QuizID != quiz.ID {
			return AttemptView{}, errNotFound("attempt does not belong to this exam")
		}
		return s.buildAttemptView(ctx, quiz, a)
	}

	access, err := s.eval.Evaluate(ctx, quiz, userID)
	if err != nil {
		return AttemptView{}, err
	}
	if !access.CanAttempt {
		reason := "you are not eligible to take this exam"
		if len(access.Blockers) > 0 {
			reason = access.Blockers[0]
		}
		return AttemptView{}, errInvalidState(reason)
	}

	questions, err := s.catalog.QuizQuestions(ctx, quiz.ID)
	if err != nil {
		return AttemptView{}, err
	}
	if len(questions) == 0 {
		return AttemptView{}, errInvalidState("the exam has no questions")
	}

	timeLimit := quiz.TimeLimitSec
	if timeLimit <= 0 {
		timeLimit = maxInt(len(questions)*s.secondsPerQuestion, s.minTimeLimitSec)
	}

	now := s.now()
	seed := now.UnixMilli() & 0x7fffffff
	ordered := questions
	if quiz.Shuffle {
		ordered = shuffleQuestions(questions, seed)
		for i := range ordered {
			ordered[i].Options = shuffleOptions(ordered[i].Options, questionSeed(seed, ordered[i].ID))
		}
	}

	var maxPoints float64
	for _, q := range ordered {
		maxPoints += pointsOrDefault(q.Points)
	}

	a := Attempt{
		ID:           s.newID(),
		QuizID:       quiz.ID,
		UserID:       userID,
		Status:       StatusInProgress,
		StartedAt:    now,
		EndsAt:       now.Add(time.Duration(timeLimit) * time.Second),
		TimeLimitSec: timeLimit,
		Seed:         seed,
		MaxPoints:    maxPoints,
	}
	items := make([]AttemptItem, 0, len(ordered))
	for i, q := range ordered {
		order := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			order = append(order, o.ID)
		}
		items = append(items, AttemptItem{
			AttemptID:    a.ID,
			QuestionID:   q.ID,
			DisplayOrder: i + 1,
			OptionOrder:  order,
		})
	}
	if err := s.attempts.CreateAttempt(ctx, a, items); err != nil {
		return AttemptView{}, err
	}
	s.record(ctx, EventAttemptStarted, a.ID, a)

	return s.buildAttemptView(ctx, quiz, a)
}

// GetAttempt loads an attempt's learner-facing view, ownership-checked.
func (s *Service) GetAttempt(ctx context.Context, userID, attemptID string) (AttemptView, error) {
	a, err := s.loadOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return AttemptView{}, err
	}
	quiz, err := s.catalog.QuizByID(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	return s.buildAttemptView(ctx, quiz, a)
}

// SaveAnswer upserts one answer while the attempt is in progress. The
// deadline is deliberately not re-checked here; expiry is enforced at view
// time and the client submits at or after it.
func (s *Service) SaveAnswer(ctx context.Context, userID, attemptID string, upd AnswerUpdate) error {
	if upd.QuestionID == "" {
		return errInvalidState("question_id is required")
	}
	a, err := s.loadOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return err
	}
	if a.Status != StatusInProgress {
		return errInvalidState("the attempt is already finished")
	}

	ok, err := s.attempts.HasItem(ctx, a.ID, upd.QuestionID)
	if err != nil {
		return err
	}
	if !ok {
		return errNotFound("question does not belong to this attempt")
	}
	if upd.SelectedOptionID != "" {
		ok, err := s.catalog.HasOption(ctx, upd.QuestionID, upd.SelectedOptionID)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound("option does not belong to this question")
		}
	}

	if err := s.attempts.UpsertAnswer(ctx, Answer{
		AttemptID:        a.ID,
		QuestionID:       upd.QuestionID,
		SelectedOptionID: upd.SelectedOptionID,
		MarkedForReview:  upd.MarkedForReview,
	}); err != nil {
		return err
	}
	return s.attempts.UpdateTracking(ctx, a.ID, upd.LastSeenQuestionID, s.now())
}

// Submit grades the attempt and applies the enrollment/certificate gate.
// Idempotent: a terminal attempt returns its previously computed result and
// re-runs no side effects. Late submissions are graded as-is; the deadline
// is not re-validated here.
func (s *Service) Submit(ctx context.Context, userID, attemptID string) (SubmitResult, error) {
	a, err := s.loadOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return SubmitResult{}, err
	}
	quiz, err := s.catalog.QuizByID(ctx, a.QuizID)
	if err != nil {
		return SubmitResult{}, err
	}

	if a.Status != StatusInProgress {
		used, err := s.attempts.CountAttempts(ctx, a.QuizID, userID)
		if err != nil {
			return SubmitResult{}, err
		}
		return s.buildSubmitResult(quiz, a, used), nil
	}

	// Grading uses the canonical bank: point values and correctness come
	// from the catalog, not the frozen per-attempt order.
	questions, err := s.catalog.QuizQuestions(ctx, a.QuizID)
	if err != nil {
		return SubmitResult{}, err
	}
	answers, err := s.attempts.Answers(ctx, a.ID)
	if err != nil {
		return SubmitResult{}, err
	}

	var totalPoints float64
	for _, q := range questions {
		ans, answered := answers[q.ID]
		correct := answered && ans.SelectedOptionID != "" && optionIsCorrect(q, ans.SelectedOptionID)
		var awarded float64
		if correct {
			awarded = pointsOrDefault(q.Points)
		}
		totalPoints += awarded
		if err := s.attempts.ApplyAnswerResult(ctx, a.ID, q.ID, correct, awarded); err != nil {
			return SubmitResult{}, err
		}
	}

	maxPoints := a.MaxPoints
	if maxPoints <= 0 {
		for _, q := range questions {
			maxPoints += pointsOrDefault(q.Points)
		}
	}
	var scorePercent float64
	if maxPoints > 0 {
		scorePercent = totalPoints / maxPoints * 100.0
	}
	passed := scorePercent >= s.passingScore(quiz)

	now := s.now()
	a.Status = StatusGraded
	a.FinishedAt = &now
	a.GradedAt = &now
	a.Score = &scorePercent
	a.Passed = &passed
	a.TotalPoints = &totalPoints
	a.MaxPoints = maxPoints
	if err := s.attempts.FinalizeAttempt(ctx, a); err != nil {
		return SubmitResult{}, err
	}

	used, err := s.attempts.CountAttempts(ctx, a.QuizID, userID)
	if err != nil {
		return SubmitResult{}, err
	}
	if _, err := s.gate.AfterGrading(ctx, quiz, a, passed, used, s.hardMaxAttempts); err != nil {
		return SubmitResult{}, err
	}
	s.record(ctx, EventAttemptGraded, a.ID, a)

	return s.buildSubmitResult(quiz, a, used), nil
}

// EnsureCertificate is the standalone "claim my certificate" operation.
func (s *Service) EnsureCertificate(ctx context.Context, userID, courseID string) (CertificateClaim, error) {
	return s.gate.EnsureCertificate(ctx, s.attempts, courseID, userID)
}

func (s *Service) ListCertificates(ctx context.Context, userID string) ([]CertificateSummary, error) {
	return s.certs.ListByUser(ctx, userID)
}

func (s *Service) loadOwnedAttempt(ctx context.Context, attemptID, userID string) (Attempt, error) {
	a, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.UserID != userID {
		return Attempt{}, errForbidden("you may not access this attempt")
	}
	return a, nil
}

// buildAttemptView projects an attempt for the learner: countdown clamped to
// [0, timeLimit], frozen question/option order, saved selections. Terminal
// attempts under score_only review return no questions.
func (s *Service) buildAttemptView(ctx context.Context, quiz Quiz, a Attempt) (AttemptView, error) {
	v := AttemptView{
		AttemptID: a.ID,
		ExamID:    a.QuizID,
		CourseID:  quiz.CourseID,
		ExamTitle: quiz.Title,
		Status:    a.Status,

		TimeLimitSec: a.TimeLimitSec,
		StartedAt:    a.StartedAt,
		EndsAt:       a.EndsAt,
		FinishedAt:   a.FinishedAt,
		GradedAt:     a.GradedAt,

		Score:        a.Score,
		Passed:       a.Passed,
		PassingScore: s.passingScore(quiz),

		LastSeenQuestionID: a.LastSeenQuestionID,
		Questions:          []AttemptQuestion{},
	}

	countdown := int(a.EndsAt.Sub(s.now()).Seconds())
	if countdown < 0 {
		countdown = 0
	}
	if countdown > a.TimeLimitSec {
		countdown = a.TimeLimitSec
	}
	v.CountdownSec = countdown

	review := quiz.ReviewPolicy != ReviewScoreOnly
	v.ReviewEnabled = review
	if a.Status != StatusInProgress && !review {
		return v, nil
	}

	items, err := s.attempts.AttemptItems(ctx, a.ID)
	if err != nil {
		return AttemptView{}, err
	}
	questions, err := s.catalog.QuizQuestions(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	answers, err := s.attempts.Answers(ctx, a.ID)
	if err != nil {
		return AttemptView{}, err
	}

	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	for _, item := range items {
		q, ok := byID[item.QuestionID]
		if !ok {
			// Question deleted from the bank after the attempt started; the
			// frozen row stays but there is nothing left to render.
			continue
		}
		aq := AttemptQuestion{
			ID:      q.ID,
			Text:    q.Text,
			Points:  pointsOrDefault(q.Points),
			Options: orderedOptions(q.Options, item.OptionOrder),
		}
		if ans, ok := answers[q.ID]; ok {
			aq.SelectedOptionID = ans.SelectedOptionID
			aq.MarkedForReview = ans.MarkedForReview
		}
		v.Questions = append(v.Questions, aq)
	}
	v.QuestionCount = len(v.Questions)
	return v, nil
}

func (s *Service) buildSubmitResult(quiz Quiz, a Attempt, attemptsUsed int) SubmitResult {
	res := SubmitResult{
		AttemptID:    a.ID,
		Status:       a.Status,
		PassingScore: s.passingScore(quiz),
		MaxPoints:    a.MaxPoints,
		FinishedAt:   a.FinishedAt,
		GradedAt:     a.GradedAt,

		AttemptsUsed:    attemptsUsed,
		AttemptsAllowed: s.hardMaxAttempts,
	}
	if a.Score != nil {
		res.ScorePercent = *a.Score
	}
	if a.TotalPoints != nil {
		res.TotalPoints = *a.TotalPoints
	}
	if a.Passed != nil {
		res.Passed = *a.Passed
	}
	res.AttemptsRemaining = maxInt(0, s.hardMaxAttempts-attemptsUsed)
	res.Locked = !res.Passed && attemptsUsed >= s.hardMaxAttempts

	switch {
	case res.Passed:
		res.Message = "Congratulations! You passed the exam."
	case res.Locked:
		res.Message = "You have used all your attempts. The course is now locked; re-enroll to try again."
	default:
		res.Message = fmt.Sprintf("You did not reach the passing score. You have %d attempt(s) left; review the material and try again.", res.AttemptsRemaining)
	}
	return res
}

func (s *Service) passingScore(q Quiz) float64 {
	if q.PassingScore > 0 {
		return q.PassingScore
	}
	return s.defaultPassingScore
}

func (s *Service) record(ctx context.Context, typ, key string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, typ, key, payload); err != nil {
		log.Printf("exam: append %s event: %v", typ, err)
	}
}

func optionIsCorrect(q Question, optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID && o.Correct {
			return true
		}
	}
	return false
}

func orderedOptions(opts []Option, order []string) []AttemptOption {
	byID := make(map[string]Option, len(opts))
	for _, o := range opts {
		byID[o.ID] = o
	}
	out := make([]AttemptOption, 0, len(opts))
	if len(order) > 0 {
		for _, id := range order {
			if o, ok := byID[id]; ok {
				out = append(out, AttemptOption{ID: o.ID, Text: o.Text})
			}
		}
		return out
	}
	for _, o := range opts {
		out = append(out, AttemptOption{ID: o.ID, Text: o.Text})
	}
	return out
}

func pointsOrDefault(p float64) float64 {
	if p > 0 {
		return p
	}
	return 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
