package exam

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLStore implements the engine's store interfaces over database/sql. The
// SQL is written to the shared subset of Postgres and SQLite: numbered
// placeholders, ON CONFLICT upserts, partial unique indexes. Timestamps are
// unix seconds.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

var _ CatalogStore = (*SQLStore)(nil)
var _ AttemptStore = (*SQLStore)(nil)
var _ EnrollmentStore = (*SQLStore)(nil)
var _ CertificateStore = (*SQLStore)(nil)
var _ ProgressTracker = (*SQLStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

const quizColumns = `q.id, q.course_id, q.lesson_id, c.slug, c.title, q.title, q.instructions,
	q.time_limit_sec, q.shuffle, q.passing_score, q.review_policy,
	q.attempt_window_start, q.attempt_window_end, q.auto_submit_grace_sec, q.retake_cooldown_minutes`

func scanQuiz(row rowScanner) (Quiz, error) {
	var (
		q            Quiz
		lessonID     sql.NullString
		instructions sql.NullString
		timeLimit    sql.NullInt64
		winStart     sql.NullInt64
		winEnd       sql.NullInt64
		cooldown     sql.NullInt64
	)
	err := row.Scan(&q.ID, &q.CourseID, &lessonID, &q.CourseSlug, &q.CourseTitle, &q.Title, &instructions,
		&timeLimit, &q.Shuffle, &q.PassingScore, &q.ReviewPolicy,
		&winStart, &winEnd, &q.AutoSubmitGraceSec, &cooldown)
	if err != nil {
		return Quiz{}, err
	}
	q.LessonID = lessonID.String
	q.Instructions = instructions.String
	q.TimeLimitSec = int(timeLimit.Int64)
	q.RetakeCooldownMin = int(cooldown.Int64)
	if winStart.Valid {
		t := time.Unix(winStart.Int64, 0).UTC()
		q.WindowStart = &t
	}
	if winEnd.Valid {
		t := time.Unix(winEnd.Int64, 0).UTC()
		q.WindowEnd = &t
	}
	return q, nil
}

func (s *SQLStore) GetQuiz(ctx context.Context, courseID, quizID string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quizColumns+`
		FROM quizzes q JOIN courses c ON c.id = q.course_id
		WHERE q.id = $1 AND q.course_id = $2`, quizID, courseID)
	q, err := scanQuiz(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, errNotFound("exam not found")
	}
	return q, err
}

func (s *SQLStore) QuizByID(ctx context.Context, quizID string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quizColumns+`
		FROM quizzes q JOIN courses c ON c.id = q.course_id
		WHERE q.id = $1`, quizID)
	q, err := scanQuiz(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, errNotFound("exam not found")
	}
	return q, err
}

func (s *SQLStore) ListQuizzes(ctx context.Context, courseID string) ([]ExamSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT q.id, q.course_id, q.title, q.time_limit_sec, q.passing_score, COUNT(qs.id)
		FROM quizzes q LEFT JOIN questions qs ON qs.quiz_id = q.id
		WHERE q.course_id = $1
		GROUP BY q.id, q.course_id, q.title, q.time_limit_sec, q.passing_score
		ORDER BY q.title, q.id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ExamSummary{}
	for rows.Next() {
		var (
			e         ExamSummary
			timeLimit sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.CourseID, &e.Title, &timeLimit, &e.PassingScore, &e.QuestionCount); err != nil {
			return nil, err
		}
		e.TimeLimitSec = int(timeLimit.Int64)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) QuizQuestions(ctx context.Context, quizID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, quiz_id, text, points, sort_order
		FROM questions WHERE quiz_id = $1 ORDER BY sort_order, id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []Question
	index := map[string]int{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.Points, &q.SortOrder); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	optRows, err := s.db.QueryContext(ctx, `SELECT o.id, o.question_id, o.text, o.is_correct, o.sort_order
		FROM question_options o JOIN questions qs ON qs.id = o.question_id
		WHERE qs.quiz_id = $1 ORDER BY o.question_id, o.sort_order, o.id`, quizID)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Correct, &o.SortOrder); err != nil {
			return nil, err
		}
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

func (s *SQLStore) QuestionStats(ctx context.Context, quizID string) (QuestionStats, error) {
	var st QuestionStats
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(CASE WHEN points > 0 THEN points ELSE 1 END), 0)
		FROM questions WHERE quiz_id = $1`, quizID).Scan(&st.Count, &st.TotalPoints)
	return st, err
}

func (s *SQLStore) HasOption(ctx context.Context, questionID, optionID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM question_options
		WHERE id = $1 AND question_id = $2`, optionID, questionID).Scan(&n)
	return n > 0, err
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt, items []AttemptItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO quiz_attempts
		(id, quiz_id, user_id, status, started_at, ends_at, time_limit_sec, seed, max_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.QuizID, a.UserID, a.Status, a.StartedAt.Unix(), a.EndsAt.Unix(),
		a.TimeLimitSec, a.Seed, a.MaxPoints)
	if err != nil {
		if isUniqueViolation(err) {
			return errConflict("an attempt is already in progress for this exam")
		}
		return err
	}
	for _, item := range items {
		_, err = tx.ExecContext(ctx, `INSERT INTO quiz_attempt_items
			(attempt_id, question_id, display_order, option_order)
			VALUES ($1, $2, $3, $4)`,
			item.AttemptID, item.QuestionID, item.DisplayOrder, strings.Join(item.OptionOrder, ","))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetAttempt(ctx context.Context, attemptID string) (Attempt, error) {
	var (
		a           Attempt
		startedAt   int64
		endsAt      int64
		finishedAt  sql.NullInt64
		gradedAt    sql.NullInt64
		lastSeen    sql.NullString
		lastSaved   sql.NullInt64
		score       sql.NullFloat64
		passed      sql.NullBool
		totalPoints sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, quiz_id, user_id, status, started_at, ends_at,
		finished_at, graded_at, last_seen_question_id, last_saved_at,
		time_limit_sec, seed, score, passed, total_points, max_points
		FROM quiz_attempts WHERE id = $1`, attemptID).Scan(
		&a.ID, &a.QuizID, &a.UserID, &a.Status, &startedAt, &endsAt,
		&finishedAt, &gradedAt, &lastSeen, &lastSaved,
		&a.TimeLimitSec, &a.Seed, &score, &passed, &totalPoints, &a.MaxPoints)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, errNotFound("attempt not found")
	}
	if err != nil {
		return Attempt{}, err
	}
	a.StartedAt = time.Unix(startedAt, 0).UTC()
	a.EndsAt = time.Unix(endsAt, 0).UTC()
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0).UTC()
		a.FinishedAt = &t
	}
	if gradedAt.Valid {
		t := time.Unix(gradedAt.Int64, 0).UTC()
		a.GradedAt = &t
	}
	a.LastSeenQuestionID = lastSeen.String
	if lastSaved.Valid {
		t := time.Unix(lastSaved.Int64, 0).UTC()
		a.LastSavedAt = &t
	}
	if score.Valid {
		a.Score = &score.Float64
	}
	if passed.Valid {
		a.Passed = &passed.Bool
	}
	if totalPoints.Valid {
		a.TotalPoints = &totalPoints.Float64
	}
	return a, nil
}

func (s *SQLStore) AttemptItems(ctx context.Context, attemptID string) ([]AttemptItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT attempt_id, question_id, display_order, option_order
		FROM quiz_attempt_items WHERE attempt_id = $1 ORDER BY display_order`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AttemptItem
	for rows.Next() {
		var (
			item  AttemptItem
			order string
		)
		if err := rows.Scan(&item.AttemptID, &item.QuestionID, &item.DisplayOrder, &order); err != nil {
			return nil, err
		}
		if order != "" {
			item.OptionOrder = strings.Split(order, ",")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLStore) HasItem(ctx context.Context, attemptID, questionID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM quiz_attempt_items
		WHERE attempt_id = $1 AND question_id = $2`, attemptID, questionID).Scan(&n)
	return n > 0, err
}

func (s *SQLStore) UpsertAnswer(ctx context.Context, ans Answer) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO quiz_answers
		(attempt_id, question_id, selected_option_id, marked_for_review)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (attempt_id, question_id) DO UPDATE SET
			selected_option_id = excluded.selected_option_id,
			marked_for_review = excluded.marked_for_review`,
		ans.AttemptID, ans.QuestionID, nullString(ans.SelectedOptionID), ans.MarkedForReview)
	return err
}

func (s *SQLStore) UpdateTracking(ctx context.Context, attemptID, lastSeenQuestionID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE quiz_attempts SET
		last_seen_question_id = COALESCE(NULLIF($2, ''), last_seen_question_id),
		last_saved_at = $3
		WHERE id = $1`, attemptID, lastSeenQuestionID, at.Unix())
	return err
}

func (s *SQLStore) Answers(ctx context.Context, attemptID string) (map[string]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT question_id, selected_option_id, marked_for_review, is_correct, points_awarded
		FROM quiz_answers WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]Answer{}
	for rows.Next() {
		var (
			ans      Answer
			selected sql.NullString
			correct  sql.NullBool
			points   sql.NullFloat64
		)
		if err := rows.Scan(&ans.QuestionID, &selected, &ans.MarkedForReview, &correct, &points); err != nil {
			return nil, err
		}
		ans.AttemptID = attemptID
		ans.SelectedOptionID = selected.String
		if correct.Valid {
			ans.IsCorrect = &correct.Bool
		}
		if points.Valid {
			ans.PointsAwarded = &points.Float64
		}
		out[ans.QuestionID] = ans
	}
	return out, rows.Err()
}

func (s *SQLStore) ApplyAnswerResult(ctx context.Context, attemptID, questionID string, correct bool, points float64) error {
	// Unanswered questions have no row; the no-op update is intentional.
	_, err := s.db.ExecContext(ctx, `UPDATE quiz_answers SET is_correct = $3, points_awarded = $4
		WHERE attempt_id = $1 AND question_id = $2`, attemptID, questionID, correct, points)
	return err
}

func (s *SQLStore) FinalizeAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx, `UPDATE quiz_attempts SET
		status = $2, finished_at = $3, graded_at = $4,
		score = $5, passed = $6, total_points = $7, max_points = $8
		WHERE id = $1`,
		a.ID, a.Status, unixPtr(a.FinishedAt), unixPtr(a.GradedAt),
		a.Score, a.Passed, a.TotalPoints, a.MaxPoints)
	return err
}

func (s *SQLStore) CountAttempts(ctx context.Context, quizID, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM quiz_attempts
		WHERE quiz_id = $1 AND user_id = $2`, quizID, userID).Scan(&n)
	return n, err
}

func (s *SQLStore) ActiveAttemptID(ctx context.Context, quizID, userID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM quiz_attempts
		WHERE quiz_id = $1 AND user_id = $2 AND status = $3 LIMIT 1`, quizID, userID, StatusInProgress).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (s *SQLStore) LastFinishedAt(ctx context.Context, quizID, userID string) (*time.Time, error) {
	var at int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(finished_at, ends_at) FROM quiz_attempts
		WHERE quiz_id = $1 AND user_id = $2 AND status <> $3
		ORDER BY COALESCE(finished_at, ends_at) DESC LIMIT 1`,
		quizID, userID, StatusInProgress).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := time.Unix(at, 0).UTC()
	return &t, nil
}

func (s *SQLStore) LatestPassedAttempt(ctx context.Context, courseID, userID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT a.id FROM quiz_attempts a
		JOIN quizzes q ON q.id = a.quiz_id
		WHERE q.course_id = $1 AND a.user_id = $2 AND a.passed = $3
		ORDER BY a.graded_at DESC LIMIT 1`, courseID, userID, true).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (s *SQLStore) Status(ctx context.Context, userID, courseID string) (string, bool, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM enrollments
		WHERE user_id = $1 AND course_id = $2`, userID, courseID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

func (s *SQLStore) SetStatus(ctx context.Context, userID, courseID, status string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO enrollments (user_id, course_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO UPDATE SET status = excluded.status`,
		userID, courseID, status)
	return err
}

func (s *SQLStore) Find(ctx context.Context, courseID, userID string) (Certificate, bool, error) {
	cert, err := s.findCertificate(ctx, courseID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Certificate{}, false, nil
	}
	if err != nil {
		return Certificate{}, false, err
	}
	return cert, true, nil
}

func (s *SQLStore) findCertificate(ctx context.Context, courseID, userID string) (Certificate, error) {
	var (
		cert      Certificate
		attemptID sql.NullString
		issuedAt  int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, course_id, user_id, attempt_id, issued_at
		FROM course_certificates WHERE course_id = $1 AND user_id = $2`, courseID, userID).Scan(
		&cert.ID, &cert.CourseID, &cert.UserID, &attemptID, &issuedAt)
	if err != nil {
		return Certificate{}, err
	}
	cert.AttemptID = attemptID.String
	cert.IssuedAt = time.Unix(issuedAt, 0).UTC()
	return cert, nil
}

func (s *SQLStore) Create(ctx context.Context, cert Certificate) (Certificate, bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO course_certificates
		(id, course_id, user_id, attempt_id, issued_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (course_id, user_id) DO NOTHING`,
		cert.ID, cert.CourseID, cert.UserID, nullString(cert.AttemptID), cert.IssuedAt.Unix())
	if err != nil {
		return Certificate{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Certificate{}, false, err
	}
	if n > 0 {
		return cert, true, nil
	}
	// Lost the race or already issued; return the winner.
	existing, err := s.findCertificate(ctx, cert.CourseID, cert.UserID)
	if err != nil {
		return Certificate{}, false, err
	}
	return existing, false, nil
}

func (s *SQLStore) HasCertificate(ctx context.Context, userID, courseID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM course_certificates
		WHERE user_id = $1 AND course_id = $2`, userID, courseID).Scan(&n)
	return n > 0, err
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string) ([]CertificateSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cc.id, cc.course_id, c.title, cc.attempt_id, a.score, cc.issued_at
		FROM course_certificates cc
		JOIN courses c ON c.id = cc.course_id
		LEFT JOIN quiz_attempts a ON a.id = cc.attempt_id
		WHERE cc.user_id = $1 ORDER BY cc.issued_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CertificateSummary{}
	for rows.Next() {
		var (
			cs        CertificateSummary
			attemptID sql.NullString
			score     sql.NullFloat64
			issuedAt  int64
		)
		if err := rows.Scan(&cs.ID, &cs.CourseID, &cs.CourseTitle, &attemptID, &score, &issuedAt); err != nil {
			return nil, err
		}
		cs.AttemptID = attemptID.String
		if score.Valid {
			cs.ScorePercent = &score.Float64
		}
		t := time.Unix(issuedAt, 0).UTC()
		cs.IssuedAt = &t
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListPrerequisites(ctx context.Context, courseID, userID string) ([]PrerequisiteStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT p.required_course_id, c.title, COUNT(cc.id)
		FROM prerequisites p
		JOIN courses c ON c.id = p.required_course_id
		LEFT JOIN course_certificates cc ON cc.course_id = p.required_course_id AND cc.user_id = $2
		WHERE p.course_id = $1
		GROUP BY p.required_course_id, c.title
		ORDER BY c.title`, courseID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PrerequisiteStatus{}
	for rows.Next() {
		var (
			p PrerequisiteStatus
			n int
		)
		if err := rows.Scan(&p.CourseID, &p.CourseTitle, &n); err != nil {
			return nil, err
		}
		p.Met = n > 0
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) MarkLessonCompleted(ctx context.Context, userID, lessonID string) error {
	now := time.Now().UTC().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO lesson_progress
		(user_id, lesson_id, progress_percent, completed_at, updated_at)
		VALUES ($1, $2, 100, $3, $3)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			progress_percent = 100,
			completed_at = COALESCE(lesson_progress.completed_at, excluded.completed_at),
			updated_at = excluded.updated_at`,
		userID, lessonID, now)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func unixPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
