package exam_test

import (
	"context"
	"testing"
	"time"

	"github.com/coursehub/coursehub-lms/internal/exam"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newEvaluator(store *exam.MemoryStore) *exam.Evaluator {
	return &exam.Evaluator{
		Enrollments:     store,
		Certificates:    store,
		Attempts:        store,
		HardMaxAttempts: 2,
		Now:             fixedClock(testNow),
	}
}

func seedCourseAndQuiz(store *exam.MemoryStore) exam.Quiz {
	store.PutCourse("c1", "go-101", "Go Fundamentals")
	quiz := exam.Quiz{
		ID:           "quiz1",
		CourseID:     "c1",
		Title:        "Final Exam",
		PassingScore: 50,
		ReviewPolicy: exam.ReviewFull,
	}
	store.PutQuiz(quiz, []exam.Question{
		{ID: "qa", QuizID: "quiz1", Text: "2+2?", Points: 1, Options: []exam.Option{
			{ID: "qa1", QuestionID: "qa", Text: "3"},
			{ID: "qa2", QuestionID: "qa", Text: "4", Correct: true},
		}},
	})
	q, _ := store.QuizByID(context.Background(), "quiz1")
	return q
}

func TestAccessNotEnrolled(t *testing.T) {
	store := exam.NewMemoryStore()
	quiz := seedCourseAndQuiz(store)

	d, err := newEvaluator(store).Evaluate(context.Background(), quiz, "alice")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Enrolled {
		t.Fatal("expected not enrolled")
	}
	if d.CanAttempt {
		t.Fatal("expected attempt refused")
	}
	if len(d.Blockers) != 1 || d.Blockers[0] != "you must enroll in the course first" {
		t.Fatalf("unexpected blockers: %v", d.Blockers)
	}
}

func TestAccessLockedEnrollment(t *testing.T) {
	store := exam.NewMemoryStore()
	quiz := seedCourseAndQuiz(store)
	store.SetEnrollment("alice", "c1", exam.EnrollmentRevoked)

	d, err := newEvaluator(store).Evaluate(context.Background(), quiz, "alice")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !d.Enrolled {
		t.Fatal("revoked learner is still enrolled, just blocked")
	}
	if d.CanAttempt {
		t.Fatal("expected attempt refused")
	}
}

func TestAccessWindow(t *testing.T) {
	store := exam.NewMemoryStore()
	store.PutCourse("c1", "go-101", "Go Fundamentals")
	store.SetEnrollment("alice", "c1", exam.EnrollmentActive)

	early := testNow.Add(1 * time.Hour)
	late := testNow.Add(-1 * time.Hour)

	notOpen := exam.Quiz{ID: "quiz1", CourseID: "c1", Title: "T", WindowStart: &early}
	closed := exam.Quiz{ID: "quiz2", CourseID: "c1", Title: "T", WindowEnd: &late}
	store.PutQuiz(notOpen, nil)
	store.PutQuiz(closed, nil)

	ev := newEvaluator(store)
	d, err := ev.Evaluate(context.Background(), notOpen, "alice")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.CanAttempt || d.Blockers[0] != "the exam is not open yet" {
		t.Fatalf("want not-open blocker, got %v", d.Blockers)
	}

	d, err = ev.Evaluate(context.Background(), closed, "alice")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.CanAttempt || d.Blockers[0] != "the exam has closed" {
		t.Fatalf("want closed blocker, got %v", d.Blockers)
	}
}

func TestAccessAttemptsExhausted(t *testing.T) {
	store := exam.NewMemoryStore()
	quiz := seedCourseAndQuiz(store)
	store.SetEnrollment("alice", "c1", exam.EnrollmentActive)

	ctx := context.Background()
	// Three graded attempts, more than today's ceiling allows; left over from
	// a more permissive configuration.
	for _, id := range []string{"a1", "a2", "a3"} {
		a := exam.Attempt{
			ID: id, QuizID: quiz.ID, UserID: "alice", Status: exam.StatusInProgress,
			StartedAt: testNow.Add(-2 * time.Hour), EndsAt: testNow.Add(-1 * time.Hour),
			TimeLimitSec: 3600, MaxPoints: 1,
		}
		if err := store.CreateAttempt(ctx, a, nil); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
		a.Status = exam.StatusGraded
		if err := store.FinalizeAttempt(ctx, a); err != nil {
			t.Fatalf("finalize %s: %v", id, err)
		}
	}

	d, err := newEvaluator(store).Evaluate(ctx, quiz, "alice")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.CanAttempt {
		t.Fatal("expected attempt refused")
	}
	if d.AttemptsUsed != 2 {
		t.Fatalf("display count should clamp to ceiling, got %d", d.AttemptsUsed)
	}
	found := false
	for _, b := range d.Blockers {
		if b == "no attempts remaining" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing exhaustion blocker: %v", d.Blockers)
	}
}

func TestAccessPrerequisites(t *testing.T) {
	store := exam.NewMemoryStore()
	quiz := seedCourseAndQuiz(store)
	store.PutCourse("c0", "intro", "Intro Course")
	store.AddPrerequisite("c1", "c0")
	store.SetEnrollment("alice", "c1", exam.EnrollmentActive)

	ctx := context.Background()
	d, err := newEvaluator(store).Evaluate(ctx, quiz, "alice")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.CanAttempt {
		t.Fatal("expected attempt refused")
	}
	if len(d.Prerequisites) != 1 || d.Prerequisites[0].Met {
		t.Fatalf("unexpected prerequisites: %+v", d.Prerequisites)
	}

	// A certificate for the required course satisfies the prerequisite.
	if _, _, err := store.Create(ctx, exam.Certificate{ID: "cert1", CourseID: "c0", UserID: "alice", IssuedAt: testNow}); err != nil {
		t.Fatalf("certificate: %v", err)
	}
	d, err = newEvaluator(store).Evaluate(ctx, quiz, "alice")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !d.CanAttempt {
		t.Fatalf("expected access after prerequisite met, blockers=%v", d.Blockers)
	}
}

func TestAccessRetakeCooldown(t *testing.T) {
	store := exam.NewMemoryStore()
	store.PutCourse("c1", "go-101", "Go Fundamentals")
	quiz := exam.Quiz{ID: "quiz1", CourseID: "c1", Title: "T", RetakeCooldownMin: 30}
	store.PutQuiz(quiz, nil)
	store.SetEnrollment("alice", "c1", exam.EnrollmentActive)

	ctx := context.Background()
	finished := testNow.Add(-10 * time.Minute)
	a := exam.Attempt{
		ID: "a1", QuizID: quiz.ID, UserID: "alice", Status: exam.StatusInProgress,
		StartedAt: finished.Add(-time.Hour), EndsAt: finished, TimeLimitSec: 3600, MaxPoints: 1,
	}
	if err := store.CreateAttempt(ctx, a, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	a.Status = exam.StatusGraded
	a.FinishedAt = &finished
	if err := store.FinalizeAttempt(ctx, a); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	d, err := newEvaluator(store).Evaluate(ctx, quiz, "alice")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.CanAttempt {
		t.Fatal("expected cooldown to block")
	}
	if d.Blockers[0] != "you must wait before retrying" {
		t.Fatalf("unexpected blockers: %v", d.Blockers)
	}
}

func TestAccessBlockersAccumulate(t *testing.T) {
	store := exam.NewMemoryStore()
	store.PutCourse("c0", "intro", "Intro Course")
	store.PutCourse("c1", "go-101", "Go Fundamentals")
	late := testNow.Add(-1 * time.Hour)
	quiz := exam.Quiz{ID: "quiz1", CourseID: "c1", Title: "T", WindowEnd: &late}
	store.PutQuiz(quiz, nil)
	store.AddPrerequisite("c1", "c0")

	d, err := newEvaluator(store).Evaluate(context.Background(), quiz, "alice")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// Not enrolled, window closed, prerequisites unmet: all reported at once.
	if len(d.Blockers) != 3 {
		t.Fatalf("want 3 blockers, got %v", d.Blockers)
	}
}
