package exam

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Event types appended by the engine.
const (
	EventAttemptStarted    = "AttemptStarted"
	EventAttemptGraded     = "AttemptGraded"
	EventCertificateIssued = "CertificateIssued"
	EventEnrollmentRevoked = "EnrollmentRevoked"
)

// Gate translates a grading outcome into enrollment and certificate side
// effects. It is idempotent: re-running it for the same terminal attempt
// yields the same end state.
type Gate struct {
	Enrollments  EnrollmentStore
	Certificates CertificateStore
	Progress     ProgressTracker
	Events       EventSink

	Now   func() time.Time
	NewID func() string
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now().UTC()
}

func (g *Gate) newID() string {
	if g.NewID != nil {
		return g.NewID()
	}
	return uuid.NewString()
}

// AfterGrading applies the outcome side effects and reports whether the
// enrollment was revoked.
func (g *Gate) AfterGrading(ctx context.Context, quiz Quiz, a Attempt, passed bool, attemptsUsed, hardCeiling int) (locked bool, err error) {
	if passed {
		if err := g.Enrollments.SetStatus(ctx, a.UserID, quiz.CourseID, EnrollmentActive); err != nil {
			return false, err
		}
		cert := Certificate{
			ID:        g.newID(),
			CourseID:  quiz.CourseID,
			UserID:    a.UserID,
			AttemptID: a.ID,
			IssuedAt:  g.now(),
		}
		issued, created, err := g.Certificates.Create(ctx, cert)
		if err != nil {
			return false, err
		}
		if created {
			g.record(ctx, EventCertificateIssued, issued.ID, issued)
		}
		if quiz.LessonID != "" {
			if err := g.Progress.MarkLessonCompleted(ctx, a.UserID, quiz.LessonID); err != nil {
				// The attempt is already graded; a progress hiccup should not
				// fail the submission.
				log.Printf("exam: mark lesson %s completed for %s: %v", quiz.LessonID, a.UserID, err)
			}
		}
		return false, nil
	}

	if attemptsUsed >= hardCeiling {
		if err := g.Enrollments.SetStatus(ctx, a.UserID, quiz.CourseID, EnrollmentRevoked); err != nil {
			return false, err
		}
		g.record(ctx, EventEnrollmentRevoked, a.UserID, map[string]string{
			"course_id":  quiz.CourseID,
			"attempt_id": a.ID,
		})
		return true, nil
	}
	return false, nil
}

// EnsureCertificate is the standalone claim operation. If a certificate
// already exists it is returned unchanged with Created=false; otherwise the
// most recent passing attempt backs a new one, and InvalidState is returned
// when there is none.
func (g *Gate) EnsureCertificate(ctx context.Context, attempts AttemptStore, courseID, userID string) (CertificateClaim, error) {
	if existing, ok, err := g.Certificates.Find(ctx, courseID, userID); err != nil {
		return CertificateClaim{}, err
	} else if ok {
		return CertificateClaim{Certificate: existing, Created: false}, nil
	}

	attemptID, err := attempts.LatestPassedAttempt(ctx, courseID, userID)
	if err != nil {
		return CertificateClaim{}, err
	}
	if attemptID == "" {
		return CertificateClaim{}, errInvalidState("no passing attempt for this course yet")
	}

	cert := Certificate{
		ID:        g.newID(),
		CourseID:  courseID,
		UserID:    userID,
		AttemptID: attemptID,
		IssuedAt:  g.now(),
	}
	issued, created, err := g.Certificates.Create(ctx, cert)
	if err != nil {
		return CertificateClaim{}, err
	}
	if created {
		g.record(ctx, EventCertificateIssued, issued.ID, issued)
	}
	return CertificateClaim{Certificate: issued, Created: created}, nil
}

func (g *Gate) record(ctx context.Context, typ, key string, payload any) {
	if g.Events == nil {
		return
	}
	if err := g.Events.Append(ctx, typ, key, payload); err != nil {
		log.Printf("exam: append %s event: %v", typ, err)
	}
}
