package exam_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/coursehub/coursehub-lms/internal/exam"
)

type recordedEvent struct {
	Type string
	Key  string
}

type fakeSink struct {
	events []recordedEvent
}

func (s *fakeSink) Append(ctx context.Context, typ, key string, payload any) error {
	s.events = append(s.events, recordedEvent{Type: typ, Key: key})
	return nil
}

func (s *fakeSink) count(typ string) int {
	n := 0
	for _, e := range s.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// threeQuestionQuiz seeds a course, an enrolled learner and a 3-question quiz
// worth 4 points (1+2+1) with no configured time limit.
func threeQuestionQuiz(store *exam.MemoryStore, shuffle bool, reviewPolicy string) exam.Quiz {
	store.PutCourse("c1", "go-101", "Go Fundamentals")
	store.SetEnrollment("alice", "c1", exam.EnrollmentActive)
	quiz := exam.Quiz{
		ID:           "quiz1",
		CourseID:     "c1",
		LessonID:     "lesson9",
		Title:        "Final Exam",
		Shuffle:      shuffle,
		PassingScore: 50,
		ReviewPolicy: reviewPolicy,
	}
	store.PutQuiz(quiz, []exam.Question{
		{ID: "q1", QuizID: "quiz1", Text: "2+2?", Points: 1, Options: []exam.Option{
			{ID: "q1a", QuestionID: "q1", Text: "3"},
			{ID: "q1b", QuestionID: "q1", Text: "4", Correct: true},
		}},
		{ID: "q2", QuizID: "quiz1", Text: "Capital of France?", Points: 2, Options: []exam.Option{
			{ID: "q2a", QuestionID: "q2", Text: "Paris", Correct: true},
			{ID: "q2b", QuestionID: "q2", Text: "Lyon"},
			{ID: "q2c", QuestionID: "q2", Text: "Nice"},
		}},
		{ID: "q3", QuizID: "quiz1", Text: "Largest planet?", Points: 1, Options: []exam.Option{
			{ID: "q3a", QuestionID: "q3", Text: "Mars"},
			{ID: "q3b", QuestionID: "q3", Text: "Jupiter", Correct: true},
		}},
	})
	q, _ := store.QuizByID(context.Background(), "quiz1")
	return q
}

func newService(store *exam.MemoryStore, sink *fakeSink, opts ...exam.ServiceOption) *exam.Service {
	base := []exam.ServiceOption{
		exam.WithClock(fixedClock(testNow)),
		exam.WithIDGenerator(seqIDs("id")),
	}
	if sink != nil {
		base = append(base, exam.WithEventSink(sink))
	}
	return exam.NewService(store, store, store, store, store, append(base, opts...)...)
}

func TestStartAttemptDerivesTimeLimit(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	svc := newService(store, nil)

	view, err := svc.CreateOrResume(context.Background(), "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// 3 questions at 60s each is below the 300s floor.
	if view.TimeLimitSec != 300 {
		t.Fatalf("time limit = %d, want 300", view.TimeLimitSec)
	}
	if view.CountdownSec != 300 {
		t.Fatalf("countdown = %d, want 300", view.CountdownSec)
	}
	if !view.EndsAt.Equal(testNow.Add(300 * time.Second)) {
		t.Fatalf("ends_at = %v", view.EndsAt)
	}
	if view.QuestionCount != 3 || len(view.Questions) != 3 {
		t.Fatalf("question count = %d/%d", view.QuestionCount, len(view.Questions))
	}
	if view.Status != exam.StatusInProgress {
		t.Fatalf("status = %q", view.Status)
	}
}

func TestStartAttemptConflict(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	svc := newService(store, nil)

	ctx := context.Background()
	if _, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", ""); err != nil {
		t.Fatalf("first start: %v", err)
	}
	_, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if !exam.IsConflict(err) {
		t.Fatalf("want conflict, got %v", err)
	}
}

func TestStartAttemptIneligible(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	svc := newService(store, nil)

	_, err := svc.CreateOrResume(context.Background(), "bob", "c1", "quiz1", "")
	if !exam.IsInvalidState(err) {
		t.Fatalf("want invalid state, got %v", err)
	}
	if err.Error() != "you must enroll in the course first" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestResumeKeepsFrozenOrder(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, true, exam.ReviewFull)
	svc := newService(store, nil)

	ctx := context.Background()
	started, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	layout := func(v exam.AttemptView) string {
		var b strings.Builder
		for _, q := range v.Questions {
			b.WriteString(q.ID + ":")
			for _, o := range q.Options {
				b.WriteString(o.ID + ",")
			}
			b.WriteString(";")
		}
		return b.String()
	}

	resumed, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", started.AttemptID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if layout(started) != layout(resumed) {
		t.Fatalf("layout changed on resume:\n%s\n%s", layout(started), layout(resumed))
	}

	fetched, err := svc.GetAttempt(ctx, "alice", started.AttemptID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if layout(started) != layout(fetched) {
		t.Fatal("layout changed on fetch")
	}
}

func TestAttemptViewHidesCorrectness(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	svc := newService(store, nil)

	view, err := svc.CreateOrResume(context.Background(), "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, q := range view.Questions {
		for _, o := range q.Options {
			if o.ID == "" || o.Text == "" {
				t.Fatalf("option missing fields: %+v", o)
			}
		}
	}
}

func TestSaveAnswerValidation(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	svc := newService(store, nil)

	ctx := context.Background()
	view, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	err = svc.SaveAnswer(ctx, "bob", view.AttemptID, exam.AnswerUpdate{QuestionID: "q1", SelectedOptionID: "q1b"})
	if !exam.IsForbidden(err) {
		t.Fatalf("foreign attempt: want forbidden, got %v", err)
	}

	err = svc.SaveAnswer(ctx, "alice", view.AttemptID, exam.AnswerUpdate{QuestionID: "nope", SelectedOptionID: "q1b"})
	if !exam.IsNotFound(err) {
		t.Fatalf("foreign question: want not found, got %v", err)
	}

	err = svc.SaveAnswer(ctx, "alice", view.AttemptID, exam.AnswerUpdate{QuestionID: "q1", SelectedOptionID: "q2a"})
	if !exam.IsNotFound(err) {
		t.Fatalf("option of another question: want not found, got %v", err)
	}

	if err := svc.SaveAnswer(ctx, "alice", view.AttemptID, exam.AnswerUpdate{QuestionID: "q1", SelectedOptionID: "q1b", LastSeenQuestionID: "q1"}); err != nil {
		t.Fatalf("valid save: %v", err)
	}

	// Overwrite, then clear.
	if err := svc.SaveAnswer(ctx, "alice", view.AttemptID, exam.AnswerUpdate{QuestionID: "q1", SelectedOptionID: "q1a"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := svc.SaveAnswer(ctx, "alice", view.AttemptID, exam.AnswerUpdate{QuestionID: "q1"}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err := svc.GetAttempt(ctx, "alice", view.AttemptID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, q := range got.Questions {
		if q.ID == "q1" && q.SelectedOptionID != "" {
			t.Fatalf("selection not cleared: %q", q.SelectedOptionID)
		}
	}
}

func TestSubmitGradesAndPasses(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	sink := &fakeSink{}
	svc := newService(store, sink)

	ctx := context.Background()
	view, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// Correct q1 (1pt) and q2 (2pt), wrong q3: 3 of 4 points.
	for _, sel := range []struct{ q, o string }{{"q1", "q1b"}, {"q2", "q2a"}, {"q3", "q3a"}} {
		if err := svc.SaveAnswer(ctx, "alice", view.AttemptID, exam.AnswerUpdate{QuestionID: sel.q, SelectedOptionID: sel.o}); err != nil {
			t.Fatalf("save %s: %v", sel.q, err)
		}
	}

	res, err := svc.Submit(ctx, "alice", view.AttemptID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.ScorePercent != 75 {
		t.Fatalf("score = %v, want 75", res.ScorePercent)
	}
	if res.TotalPoints != 3 || res.MaxPoints != 4 {
		t.Fatalf("points = %v/%v", res.TotalPoints, res.MaxPoints)
	}
	if !res.Passed || res.Locked {
		t.Fatalf("unexpected outcome: %+v", res)
	}
	if !strings.Contains(res.Message, "Congratulations") {
		t.Fatalf("message = %q", res.Message)
	}

	status, _, err := store.Status(ctx, "alice", "c1")
	if err != nil || status != exam.EnrollmentActive {
		t.Fatalf("enrollment = %q, %v", status, err)
	}
	if ok, _ := store.HasCertificate(ctx, "alice", "c1"); !ok {
		t.Fatal("certificate not issued")
	}
	if _, ok := store.LessonCompletedAt("alice", "lesson9"); !ok {
		t.Fatal("gating lesson not completed")
	}
	if sink.count(exam.EventAttemptStarted) != 1 || sink.count(exam.EventAttemptGraded) != 1 || sink.count(exam.EventCertificateIssued) != 1 {
		t.Fatalf("unexpected events: %+v", sink.events)
	}
}

func TestSubmitFailLeavesRetry(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	svc := newService(store, nil)

	ctx := context.Background()
	view, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// Only q1 correct: 1 of 4 points, 25%.
	if err := svc.SaveAnswer(ctx, "alice", view.AttemptID, exam.AnswerUpdate{QuestionID: "q1", SelectedOptionID: "q1b"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := svc.Submit(ctx, "alice", view.AttemptID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Passed || res.Locked {
		t.Fatalf("unexpected outcome: %+v", res)
	}
	if res.AttemptsRemaining != 1 || !strings.Contains(res.Message, "1 attempt(s) left") {
		t.Fatalf("remaining=%d message=%q", res.AttemptsRemaining, res.Message)
	}
	// Still enrolled and unlocked.
	status, _, _ := store.Status(ctx, "alice", "c1")
	if status != exam.EnrollmentActive {
		t.Fatalf("enrollment = %q", status)
	}
}

func TestSubmitSecondFailRevokesEnrollment(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	sink := &fakeSink{}
	svc := newService(store, sink)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		view, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		res, err := svc.Submit(ctx, "alice", view.AttemptID)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if i == 1 {
			if !res.Locked {
				t.Fatalf("second failure should lock: %+v", res)
			}
			if !strings.Contains(res.Message, "re-enroll") {
				t.Fatalf("message = %q", res.Message)
			}
		}
	}

	status, _, _ := store.Status(ctx, "alice", "c1")
	if status != exam.EnrollmentRevoked {
		t.Fatalf("enrollment = %q, want revoked", status)
	}
	if sink.count(exam.EventEnrollmentRevoked) != 1 {
		t.Fatalf("unexpected events: %+v", sink.events)
	}

	// A fresh start is now refused.
	_, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if !exam.IsInvalidState(err) {
		t.Fatalf("want invalid state, got %v", err)
	}
}

func TestSubmitIdempotent(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	sink := &fakeSink{}
	svc := newService(store, sink)

	ctx := context.Background()
	view, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, sel := range []struct{ q, o string }{{"q1", "q1b"}, {"q2", "q2a"}, {"q3", "q3b"}} {
		if err := svc.SaveAnswer(ctx, "alice", view.AttemptID, exam.AnswerUpdate{QuestionID: sel.q, SelectedOptionID: sel.o}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	first, err := svc.Submit(ctx, "alice", view.AttemptID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := svc.Submit(ctx, "alice", view.AttemptID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if first != second {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
	if sink.count(exam.EventAttemptGraded) != 1 || sink.count(exam.EventCertificateIssued) != 1 {
		t.Fatalf("side effects re-ran: %+v", sink.events)
	}
}

func TestUnansweredScoreZero(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	svc := newService(store, nil)

	ctx := context.Background()
	view, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := svc.Submit(ctx, "alice", view.AttemptID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.ScorePercent != 0 || res.TotalPoints != 0 || res.Passed {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPassBoundary(t *testing.T) {
	store := exam.NewMemoryStore()
	store.PutCourse("c1", "go-101", "Go Fundamentals")
	quiz := exam.Quiz{ID: "quiz1", CourseID: "c1", Title: "T", PassingScore: 60, ReviewPolicy: exam.ReviewFull}
	// Four questions worth 1+1+2+1 = 5 points.
	store.PutQuiz(quiz, []exam.Question{
		{ID: "q1", QuizID: "quiz1", Text: "a", Points: 1, Options: []exam.Option{{ID: "q1a", QuestionID: "q1", Text: "x", Correct: true}, {ID: "q1b", QuestionID: "q1", Text: "y"}}},
		{ID: "q2", QuizID: "quiz1", Text: "b", Points: 1, Options: []exam.Option{{ID: "q2a", QuestionID: "q2", Text: "x", Correct: true}, {ID: "q2b", QuestionID: "q2", Text: "y"}}},
		{ID: "q3", QuizID: "quiz1", Text: "c", Points: 2, Options: []exam.Option{{ID: "q3a", QuestionID: "q3", Text: "x", Correct: true}, {ID: "q3b", QuestionID: "q3", Text: "y"}}},
		{ID: "q4", QuizID: "quiz1", Text: "d", Points: 1, Options: []exam.Option{{ID: "q4a", QuestionID: "q4", Text: "x", Correct: true}, {ID: "q4b", QuestionID: "q4", Text: "y"}}},
	})
	svc := newService(store, nil)
	ctx := context.Background()

	run := func(user string, sels map[string]string) exam.SubmitResult {
		t.Helper()
		store.SetEnrollment(user, "c1", exam.EnrollmentActive)
		view, err := svc.CreateOrResume(ctx, user, "c1", "quiz1", "")
		if err != nil {
			t.Fatalf("start %s: %v", user, err)
		}
		for q, o := range sels {
			if err := svc.SaveAnswer(ctx, user, view.AttemptID, exam.AnswerUpdate{QuestionID: q, SelectedOptionID: o}); err != nil {
				t.Fatalf("save %s/%s: %v", user, q, err)
			}
		}
		res, err := svc.Submit(ctx, user, view.AttemptID)
		if err != nil {
			t.Fatalf("submit %s: %v", user, err)
		}
		return res
	}

	// 3 of 5 points is exactly 60%: the boundary passes.
	res := run("alice", map[string]string{"q1": "q1a", "q2": "q2a", "q4": "q4a", "q3": "q3b"})
	if res.ScorePercent != 60 || !res.Passed {
		t.Fatalf("boundary: %+v", res)
	}

	// 2 of 5 points is 40%: below the boundary.
	res = run("bob", map[string]string{"q1": "q1a", "q2": "q2a"})
	if res.ScorePercent != 40 || res.Passed {
		t.Fatalf("below boundary: %+v", res)
	}
}

func TestCountdownClampsAfterExpiry(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)

	svc := newService(store, nil)
	ctx := context.Background()
	view, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Same store, clock past the deadline.
	late := exam.NewService(store, store, store, store, store,
		exam.WithClock(fixedClock(testNow.Add(2*time.Hour))),
		exam.WithIDGenerator(seqIDs("late")))
	got, err := late.GetAttempt(ctx, "alice", view.AttemptID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CountdownSec != 0 {
		t.Fatalf("countdown = %d, want 0", got.CountdownSec)
	}
	if got.Status != exam.StatusInProgress {
		t.Fatalf("expiry must not flip status server-side, got %q", got.Status)
	}
}

func TestScoreOnlyReviewHidesQuestions(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewScoreOnly)
	svc := newService(store, nil)

	ctx := context.Background()
	view, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(view.Questions) != 3 {
		t.Fatal("questions must be visible while in progress")
	}
	if _, err := svc.Submit(ctx, "alice", view.AttemptID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	after, err := svc.GetAttempt(ctx, "alice", view.AttemptID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(after.Questions) != 0 {
		t.Fatalf("score_only review leaked %d questions", len(after.Questions))
	}
	if after.Score == nil {
		t.Fatal("score missing from terminal view")
	}
	if err := svc.SaveAnswer(ctx, "alice", view.AttemptID, exam.AnswerUpdate{QuestionID: "q1", SelectedOptionID: "q1b"}); !exam.IsInvalidState(err) {
		t.Fatalf("save after grading: want invalid state, got %v", err)
	}
}

func TestEnsureCertificate(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	svc := newService(store, nil)

	ctx := context.Background()
	_, err := svc.EnsureCertificate(ctx, "alice", "c1")
	if !exam.IsInvalidState(err) {
		t.Fatalf("claim without pass: want invalid state, got %v", err)
	}

	view, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, sel := range []struct{ q, o string }{{"q1", "q1b"}, {"q2", "q2a"}} {
		if err := svc.SaveAnswer(ctx, "alice", view.AttemptID, exam.AnswerUpdate{QuestionID: sel.q, SelectedOptionID: sel.o}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if _, err := svc.Submit(ctx, "alice", view.AttemptID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// The gate already issued on pass; the claim finds it.
	claim, err := svc.EnsureCertificate(ctx, "alice", "c1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.Created {
		t.Fatal("claim should reuse the certificate issued at grading")
	}
	if claim.Certificate.AttemptID != view.AttemptID {
		t.Fatalf("certificate backs %q, want %q", claim.Certificate.AttemptID, view.AttemptID)
	}

	certs, err := svc.ListCertificates(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(certs) != 1 || certs[0].CourseTitle != "Go Fundamentals" {
		t.Fatalf("unexpected certificates: %+v", certs)
	}
}

func TestListCourseExamsAdvertisesCeiling(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	svc := newService(store, nil, exam.WithHardMaxAttempts(2))

	list, err := svc.ListCourseExams(context.Background(), "c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d exams", len(list))
	}
	if list[0].MaxAttempts != 2 || list[0].QuestionCount != 3 {
		t.Fatalf("unexpected summary: %+v", list[0])
	}
}

func TestOverview(t *testing.T) {
	store := exam.NewMemoryStore()
	threeQuestionQuiz(store, false, exam.ReviewFull)
	svc := newService(store, nil)

	ctx := context.Background()
	ov, err := svc.Overview(ctx, "alice", "c1", "quiz1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if !ov.CanAttempt || ov.QuestionCount != 3 || ov.MaxAttempts != 2 {
		t.Fatalf("unexpected overview: %+v", ov)
	}
	if ov.CourseTitle != "Go Fundamentals" {
		t.Fatalf("course join missing: %+v", ov)
	}

	started, err := svc.CreateOrResume(ctx, "alice", "c1", "quiz1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ov, err = svc.Overview(ctx, "alice", "c1", "quiz1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.ActiveAttemptID != started.AttemptID {
		t.Fatalf("active attempt = %q, want %q", ov.ActiveAttemptID, started.AttemptID)
	}

	if _, err := svc.Overview(ctx, "alice", "c1", "missing"); !exam.IsNotFound(err) {
		t.Fatalf("missing quiz: want not found, got %v", err)
	}
	if _, err := svc.Overview(ctx, "alice", "other-course", "quiz1"); !exam.IsNotFound(err) {
		t.Fatalf("course mismatch: want not found, got %v", err)
	}
}
