package exam

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of every store interface. It
// backs offline mode and the test suite. Seeding happens through the Put*
// helpers; all methods are safe for concurrent use.
type MemoryStore struct {
	mu sync.Mutex

	courses     map[string]memCourse
	quizzes     map[string]Quiz
	questions   map[string][]Question // quizID -> canonical order
	prereqs     map[string][]string   // courseID -> required course IDs
	enrollments map[string]string     // userID|courseID -> status
	attempts    map[string]Attempt
	items       map[string][]AttemptItem
	answers     map[string]map[string]Answer // attemptID -> questionID -> answer
	certs       map[string]Certificate       // courseID|userID
	progress    map[string]time.Time         // userID|lessonID -> completed at
}

type memCourse struct {
	ID    string
	Slug  string
	Title string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courses:     map[string]memCourse{},
		quizzes:     map[string]Quiz{},
		questions:   map[string][]Question{},
		prereqs:     map[string][]string{},
		enrollments: map[string]string{},
		attempts:    map[string]Attempt{},
		items:       map[string][]AttemptItem{},
		answers:     map[string]map[string]Answer{},
		certs:       map[string]Certificate{},
		progress:    map[string]time.Time{},
	}
}

var _ CatalogStore = (*MemoryStore)(nil)
var _ AttemptStore = (*MemoryStore)(nil)
var _ EnrollmentStore = (*MemoryStore)(nil)
var _ CertificateStore = (*MemoryStore)(nil)
var _ ProgressTracker = (*MemoryStore)(nil)

func memKey(a, b string) string { return a + "|" + b }

// PutCourse registers a course for slug/title joins.
func (m *MemoryStore) PutCourse(id, slug, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[id] = memCourse{ID: id, Slug: slug, Title: title}
}

// PutQuiz stores a quiz and its question bank in canonical order.
func (m *MemoryStore) PutQuiz(q Quiz, questions []Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.courses[q.CourseID]; ok {
		q.CourseSlug = c.Slug
		q.CourseTitle = c.Title
	}
	m.quizzes[q.ID] = q
	m.questions[q.ID] = questions
}

func (m *MemoryStore) SetEnrollment(userID, courseID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[memKey(userID, courseID)] = status
}

func (m *MemoryStore) AddPrerequisite(courseID, requiredCourseID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prereqs[courseID] = append(m.prereqs[courseID], requiredCourseID)
}

// LessonCompletedAt reports when a lesson was marked completed, if ever.
func (m *MemoryStore) LessonCompletedAt(userID, lessonID string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.progress[memKey(userID, lessonID)]
	return at, ok
}

func (m *MemoryStore) GetQuiz(ctx context.Context, courseID, quizID string) (Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[quizID]
	if !ok || q.CourseID != courseID {
		return Quiz{}, errNotFound("exam not found")
	}
	return q, nil
}

func (m *MemoryStore) QuizByID(ctx context.Context, quizID string) (Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[quizID]
	if !ok {
		return Quiz{}, errNotFound("exam not found")
	}
	return q, nil
}

func (m *MemoryStore) ListQuizzes(ctx context.Context, courseID string) ([]ExamSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []ExamSummary{}
	for _, q := range m.quizzes {
		if q.CourseID != courseID {
			continue
		}
		out = append(out, ExamSummary{
			ID:            q.ID,
			CourseID:      q.CourseID,
			Title:         q.Title,
			TimeLimitSec:  q.TimeLimitSec,
			PassingScore:  q.PassingScore,
			QuestionCount: len(m.questions[q.ID]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) QuizQuestions(ctx context.Context, quizID string) ([]Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.questions[quizID]
	out := make([]Question, len(src))
	copy(out, src)
	return out, nil
}

func (m *MemoryStore) QuestionStats(ctx context.Context, quizID string) (QuestionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st QuestionStats
	for _, q := range m.questions[quizID] {
		st.Count++
		st.TotalPoints += pointsOrDefault(q.Points)
	}
	return st, nil
}

func (m *MemoryStore) HasOption(ctx context.Context, questionID, optionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, qs := range m.questions {
		for _, q := range qs {
			if q.ID != questionID {
				continue
			}
			for _, o := range q.Options {
				if o.ID == optionID {
					return true, nil
				}
			}
			return false, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateAttempt(ctx context.Context, a Attempt, items []AttemptItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.attempts {
		if existing.QuizID == a.QuizID && existing.UserID == a.UserID && existing.Status == StatusInProgress {
			return errConflict("an attempt is already in progress for this exam")
		}
	}
	m.attempts[a.ID] = a
	stored := make([]AttemptItem, len(items))
	copy(stored, items)
	m.items[a.ID] = stored
	m.answers[a.ID] = map[string]Answer{}
	return nil
}

func (m *MemoryStore) GetAttempt(ctx context.Context, attemptID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, errNotFound("attempt not found")
	}
	return a, nil
}

func (m *MemoryStore) AttemptItems(ctx context.Context, attemptID string) ([]AttemptItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.items[attemptID]
	out := make([]AttemptItem, len(src))
	copy(out, src)
	return out, nil
}

func (m *MemoryStore) HasItem(ctx context.Context, attemptID, questionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items[attemptID] {
		if item.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) UpsertAnswer(ctx context.Context, ans Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byQ, ok := m.answers[ans.AttemptID]
	if !ok {
		byQ = map[string]Answer{}
		m.answers[ans.AttemptID] = byQ
	}
	prev := byQ[ans.QuestionID]
	prev.AttemptID = ans.AttemptID
	prev.QuestionID = ans.QuestionID
	prev.SelectedOptionID = ans.SelectedOptionID
	prev.MarkedForReview = ans.MarkedForReview
	byQ[ans.QuestionID] = prev
	return nil
}

func (m *MemoryStore) UpdateTracking(ctx context.Context, attemptID, lastSeenQuestionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return errNotFound("attempt not found")
	}
	if lastSeenQuestionID != "" {
		a.LastSeenQuestionID = lastSeenQuestionID
	}
	a.LastSavedAt = &at
	m.attempts[attemptID] = a
	return nil
}

func (m *MemoryStore) Answers(ctx context.Context, attemptID string) (map[string]Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]Answer{}
	for qID, ans := range m.answers[attemptID] {
		out[qID] = ans
	}
	return out, nil
}

func (m *MemoryStore) ApplyAnswerResult(ctx context.Context, attemptID, questionID string, correct bool, points float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byQ := m.answers[attemptID]
	ans, ok := byQ[questionID]
	if !ok {
		return nil
	}
	ans.IsCorrect = &correct
	ans.PointsAwarded = &points
	byQ[questionID] = ans
	return nil
}

func (m *MemoryStore) FinalizeAttempt(ctx context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[a.ID]; !ok {
		return errNotFound("attempt not found")
	}
	m.attempts[a.ID] = a
	return nil
}

func (m *MemoryStore) CountAttempts(ctx context.Context, quizID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ActiveAttemptID(ctx context.Context, quizID, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.UserID == userID && a.Status == StatusInProgress {
			return a.ID, nil
		}
	}
	return "", nil
}

func (m *MemoryStore) LastFinishedAt(ctx context.Context, quizID, userID string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *time.Time
	for _, a := range m.attempts {
		if a.QuizID != quizID || a.UserID != userID || a.Status == StatusInProgress {
			continue
		}
		at := a.EndsAt
		if a.FinishedAt != nil {
			at = *a.FinishedAt
		}
		if latest == nil || at.After(*latest) {
			t := at
			latest = &t
		}
	}
	return latest, nil
}

func (m *MemoryStore) LatestPassedAttempt(ctx context.Context, courseID, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		bestID string
		bestAt time.Time
	)
	for _, a := range m.attempts {
		if a.UserID != userID || a.Passed == nil || !*a.Passed || a.GradedAt == nil {
			continue
		}
		q, ok := m.quizzes[a.QuizID]
		if !ok || q.CourseID != courseID {
			continue
		}
		if bestID == "" || a.GradedAt.After(bestAt) {
			bestID = a.ID
			bestAt = *a.GradedAt
		}
	}
	return bestID, nil
}

func (m *MemoryStore) Status(ctx context.Context, userID, courseID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.enrollments[memKey(userID, courseID)]
	return status, ok, nil
}

func (m *MemoryStore) SetStatus(ctx context.Context, userID, courseID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[memKey(userID, courseID)] = status
	return nil
}

func (m *MemoryStore) Find(ctx context.Context, courseID, userID string) (Certificate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cert, ok := m.certs[memKey(courseID, userID)]
	return cert, ok, nil
}

func (m *MemoryStore) Create(ctx context.Context, cert Certificate) (Certificate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(cert.CourseID, cert.UserID)
	if existing, ok := m.certs[key]; ok {
		return existing, false, nil
	}
	m.certs[key] = cert
	return cert, true, nil
}

func (m *MemoryStore) HasCertificate(ctx context.Context, userID, courseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.certs[memKey(courseID, userID)]
	return ok, nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string) ([]CertificateSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []CertificateSummary{}
	for _, cert := range m.certs {
		if cert.UserID != userID {
			continue
		}
		cs := CertificateSummary{
			ID:        cert.ID,
			CourseID:  cert.CourseID,
			AttemptID: cert.AttemptID,
		}
		if c, ok := m.courses[cert.CourseID]; ok {
			cs.CourseTitle = c.Title
		}
		if a, ok := m.attempts[cert.AttemptID]; ok {
			cs.ScorePercent = a.Score
		}
		t := cert.IssuedAt
		cs.IssuedAt = &t
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(*out[j].IssuedAt) {
			return out[i].IssuedAt.After(*out[j].IssuedAt)
		}
		return strings.Compare(out[i].ID, out[j].ID) < 0
	})
	return out, nil
}

func (m *MemoryStore) ListPrerequisites(ctx context.Context, courseID, userID string) ([]PrerequisiteStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []PrerequisiteStatus{}
	for _, required := range m.prereqs[courseID] {
		p := PrerequisiteStatus{CourseID: required}
		if c, ok := m.courses[required]; ok {
			p.CourseTitle = c.Title
		}
		_, p.Met = m.certs[memKey(required, userID)]
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseTitle < out[j].CourseTitle })
	return out, nil
}

func (m *MemoryStore) MarkLessonCompleted(ctx context.Context, userID, lessonID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(userID, lessonID)
	if _, ok := m.progress[key]; !ok {
		m.progress[key] = time.Now().UTC()
	}
	return nil
}
