package exam

import (
	"context"
	"strings"
	"time"
)

// Blocker messages double as the InvalidState error text when an operation
// is refused.
const (
	blockerNotEnrolled   = "you must enroll in the course first"
	blockerCourseLocked  = "the course is locked after too many failed attempts; please re-enroll"
	blockerNotOpenYet    = "the exam is not open yet"
	blockerClosed        = "the exam has closed"
	blockerNoAttempts    = "no attempts remaining"
	blockerPrereqsUnmet  = "prerequisites not met"
	blockerCooldown      = "you must wait before retrying"
)

// Evaluator decides whether a learner may start or continue an attempt. All
// checks run in order and accumulate blockers; nothing short-circuits, so the
// caller can show every reason at once.
type Evaluator struct {
	Enrollments  EnrollmentStore
	Certificates CertificateStore
	Attempts     AttemptStore

	// HardMaxAttempts is the system-wide ceiling, overriding any per-quiz
	// configuration.
	HardMaxAttempts int

	Now func() time.Time
}

func (e *Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

func (e *Evaluator) Evaluate(ctx context.Context, quiz Quiz, userID string) (AccessDecision, error) {
	d := AccessDecision{Blockers: []string{}}

	status, enrolled, err := e.Enrollments.Status(ctx, userID, quiz.CourseID)
	if err != nil {
		return d, err
	}
	d.Enrolled = enrolled
	if !enrolled {
		d.Blockers = append(d.Blockers, blockerNotEnrolled)
	} else if s := strings.ToLower(status); s == EnrollmentLocked || s == EnrollmentRevoked {
		d.Blockers = append(d.Blockers, blockerCourseLocked)
	}

	now := e.now()
	if quiz.WindowStart != nil && now.Before(*quiz.WindowStart) {
		d.Blockers = append(d.Blockers, blockerNotOpenYet)
	}
	if quiz.WindowEnd != nil && now.After(*quiz.WindowEnd) {
		d.Blockers = append(d.Blockers, blockerClosed)
	}

	raw, err := e.Attempts.CountAttempts(ctx, quiz.ID, userID)
	if err != nil {
		return d, err
	}
	// Display is clamped to the ceiling; exhaustion uses the raw count, so
	// attempts left over from a more permissive configuration still count.
	d.AttemptsUsed = raw
	if d.AttemptsUsed > e.HardMaxAttempts {
		d.AttemptsUsed = e.HardMaxAttempts
	}
	if raw >= e.HardMaxAttempts {
		d.Blockers = append(d.Blockers, blockerNoAttempts)
	}

	prereqs, err := e.Certificates.ListPrerequisites(ctx, quiz.CourseID, userID)
	if err != nil {
		return d, err
	}
	d.Prerequisites = prereqs
	for _, p := range prereqs {
		if !p.Met {
			d.Blockers = append(d.Blockers, blockerPrereqsUnmet)
			break
		}
	}

	last, err := e.Attempts.LastFinishedAt(ctx, quiz.ID, userID)
	if err != nil {
		return d, err
	}
	d.LastFinishedAt = last
	if quiz.RetakeCooldownMin > 0 && last != nil {
		allowAt := last.Add(time.Duration(quiz.RetakeCooldownMin) * time.Minute)
		if now.Before(allowAt) {
			d.Blockers = append(d.Blockers, blockerCooldown)
		}
	}

	active, err := e.Attempts.ActiveAttemptID(ctx, quiz.ID, userID)
	if err != nil {
		return d, err
	}
	d.ActiveAttemptID = active

	d.CanAttempt = len(d.Blockers) == 0
	return d, nil
}
