package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ErrorKind classifies a rejected operation. Every kind is a caller-input
// error: it is surfaced to the caller and never retried.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindUnauthorized
	KindInvalidState
	KindInvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// DomainError is a classified domain failure. It unwraps to the sentinel of
// its kind, so errors.Is(err, ErrNotFound) holds for every not-found error.
type DomainError struct {
	kind   ErrorKind
	msg    string
	parent error
}

func (e *DomainError) Error() string   { return e.msg }
func (e *DomainError) Kind() ErrorKind { return e.kind }
func (e *DomainError) Unwrap() error   { return e.parent }

// Kind sentinels.
var (
	ErrNotFound     = &DomainError{kind: KindNotFound, msg: "not found"}
	ErrUnauthorized = &DomainError{kind: KindUnauthorized, msg: "unauthorized"}
	ErrInvalidState = &DomainError{kind: KindInvalidState, msg: "invalid state"}
	ErrInvalidInput = &DomainError{kind: KindInvalidInput, msg: "invalid input"}
)

// Specific failures, each matching its kind sentinel as well.
var (
	ErrInvalidStatusTransition = newKinded(ErrInvalidState, "invalid status transition")
	ErrAlreadySettled          = newKinded(ErrInvalidInput, "emi already settled")
	ErrScheduleExists          = newKinded(ErrInvalidInput, "emi schedule already generated")
	ErrDuplicateIdentity       = newKinded(ErrInvalidInput, "an application with this PAN or Aadhaar already exists")
)

// ErrConcurrentModification is returned by repositories when an optimistic
// version check fails. It is the only retryable error.
var ErrConcurrentModification = errors.New("concurrent modification")

// ErrDuplicateNumber signals a human-readable number collision; callers draw
// a new number and try again.
var ErrDuplicateNumber = errors.New("duplicate application or offer number")

func newKinded(parent *DomainError, msg string) *DomainError {
	return &DomainError{kind: parent.kind, msg: msg, parent: parent}
}

// NotFound builds a not-found error, e.g. NotFound("application %s", id).
func NotFound(format string, args ...any) error {
	return newKinded(ErrNotFound, fmt.Sprintf(format, args...)+" not found")
}

// Unauthorized builds a role-mismatch error.
func Unauthorized(format string, args ...any) error {
	return newKinded(ErrUnauthorized, fmt.Sprintf(format, args...))
}

// InvalidState builds a wrong-status error.
func InvalidState(format string, args ...any) error {
	return newKinded(ErrInvalidState, fmt.Sprintf(format, args...))
}

// InvalidInput builds a malformed-request error.
func InvalidInput(format string, args ...any) error {
	return newKinded(ErrInvalidInput, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first DomainError in err's chain.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.kind
	}
	return KindUnknown
}
