package exam

import "errors"

// Kind classifies engine failures so the transport layer can map them to
// status codes without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidState
	KindConflict
)

// Error is a typed engine failure. Message is learner-facing; access blockers
// stay data in AccessDecision and only become an Error when an operation is
// actually refused.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func errNotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func errForbidden(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }
func errInvalidState(msg string) error { return &Error{Kind: KindInvalidState, Message: msg} }
func errConflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }

// KindOf returns the Kind of err, or KindInternal for storage and other
// infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsForbidden(err error) bool    { return KindOf(err) == KindForbidden }
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
