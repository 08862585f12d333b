package order

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error so the transport layer can pick a response.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindExpired
	KindForbidden
	KindConflict
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

// Error is returned by every Engine operation that fails for a reason the
// caller can act on.  Seats lists the contended seats of a conflict.
// Retryable marks conflicts that a fresh attempt may not hit again.
type Error struct {
	Kind      Kind
	Message   string
	Seats     []uint64
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindInternal for errors that are not
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func validationError(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func notFoundError(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func expiredError(msg string) *Error { return &Error{Kind: KindExpired, Message: msg} }

func forbiddenError(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func conflictError(msg string, seats ...uint64) *Error {
	return &Error{Kind: KindConflict, Message: msg, Seats: seats}
}

func dependencyError(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

// NewForbidden lets the transport layer report an access check it made
// itself in the same taxonomy.
func NewForbidden(msg string) error { return forbiddenError(msg) }

// NewValidation reports malformed input detected before reaching the Engine.
func NewValidation(msg string) error { return validationError(msg) }
