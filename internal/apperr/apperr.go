// Package apperr defines the error taxonomy surfaced to API callers.
package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies a user-facing failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindNoMatchingStudents
)

// Error carries a failure kind and a message safe to return to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }

// NoMatchingStudents signals that a class target fan-out resolved to an empty
// set. This is a user-facing validation failure, almost always a typo'd
// class or major name, never a silent no-op.
func NoMatchingStudents(msg string) *Error {
	return &Error{Kind: KindNoMatchingStudents, Message: msg}
}

// Wrap attaches an underlying cause to a taxonomy error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: errors.WithStack(err)}
}

// KindOf returns the kind of err, or zero if err is not a taxonomy error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// Is reports whether err is a taxonomy error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
