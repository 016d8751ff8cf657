package domain

import "errors"

var (
	// ErrDuplicateEntity indicates a uniqueness constraint was violated.
	ErrDuplicateEntity = errors.New("duplicate entity")
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredential indicates a password did not match.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrForbidden indicates the caller does not own the entity.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated indicates the operation needs a verified identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidInput indicates a request failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Error is a caller-facing failure. Message is safe to return to clients and
// Kind is one of the sentinel errors above.
type Error struct {
	Kind    error
	Message string
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }
