// Package apperr is the error taxonomy shared by every layer.
//
// Repositories, the availability engine and the workflow engine all return
// *Error values (possibly wrapped). The API layer only needs KindOf and Reason
// to turn any failure into a user-facing response.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: missing or malformed input. Nothing was attempted.
	KindValidation
	// KindConstraint: a uniqueness rule in storage was violated.
	KindConstraint
	// KindPrecondition: the current state forbids the operation.
	KindPrecondition
	// KindIllegalTransition: a request is no longer pending.
	KindIllegalTransition
	KindNotFound
	KindForbidden
	KindUnauthenticated
	// KindStorage: connectivity or integrity failure. Reason is generic.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConstraint:
		return "constraint"
	case KindPrecondition:
		return "precondition"
	case KindIllegalTransition:
		return "illegal_transition"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConstraint        = &Error{Kind: KindConstraint}
	ErrPrecondition      = &Error{Kind: KindPrecondition}
	ErrIllegalTransition = &Error{Kind: KindIllegalTransition}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated}
	ErrStorage           = &Error{Kind: KindStorage}
)

// Error carries the kind, the operation that failed and a reason that is
// safe to show to the user.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, e.Kind.String())
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality against a bare sentinel (no reason, op or cause).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason == "" && t.Op == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return false
}

func Validation(reason string) error {
	return &Error{Kind: KindValidation, Reason: reason}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Reason: fmt.Sprintf(format, args...)}
}

func Constraint(reason string) error {
	return &Error{Kind: KindConstraint, Reason: reason}
}

func Precondition(reason string) error {
	return &Error{Kind: KindPrecondition, Reason: reason}
}

func Preconditionf(format string, args ...any) error {
	return &Error{Kind: KindPrecondition, Reason: fmt.Sprintf(format, args...)}
}

// IllegalTransition reports an accept/reject on a request that already left pending.
func IllegalTransition(what, from, to string) error {
	return &Error{
		Kind:   KindIllegalTransition,
		Reason: fmt.Sprintf("%s is already %s and cannot become %s", what, from, to),
	}
}

func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Reason: what + " not found"}
}

func Forbidden(reason string) error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

func Unauthenticated(reason string) error {
	return &Error{Kind: KindUnauthenticated, Reason: reason}
}

// Storage wraps a driver error. The cause is kept for logs only.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Reason returns a message fit for the user. Storage and unknown failures
// collapse to a generic sentence.
func Reason(err error) string {
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind == KindStorage || ae.Reason == "" {
		return "something went wrong, please try again"
	}
	return ae.Reason
}
