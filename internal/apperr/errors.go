// Package apperr defines the error taxonomy shared by services and handlers.
// Callers match kinds with errors.Is; the HTTP layer maps each kind to a status.
package apperr

import "errors"

var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks a uniqueness or duplicate-membership violation.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an authenticated caller without access to the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrDependency marks a failure of an external collaborator (object storage).
	ErrDependency = errors.New("dependency failure")
	// ErrUnauthenticated marks a request without a valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Error pairs a kind with the message shown to the client and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func Validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func Conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

func Unauthenticated(msg string) error { return &Error{Kind: ErrUnauthenticated, Message: msg} }

// Dependency wraps the failure of an external store. The cause is kept for
// logging and never shown to the client.
func Dependency(msg string, err error) error {
	return &Error{Kind: ErrDependency, Message: msg, Err: err}
}

// PublicMessage returns the client-facing message of err, or fallback when err
// carries none.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
