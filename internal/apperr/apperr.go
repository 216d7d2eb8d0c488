// Package apperr defines the error kinds shared by the store, auth and api
// layers. A kind is a sentinel error; an *Error pairs a kind with the
// machine-readable reason code that clients see (e.g. "object_exists").
package apperr

import (
	"context"
	"errors"
	"net/http"
)

// Error kinds. Compare with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	ErrAmbiguous    = errors.New("ambiguous")
	ErrInternal     = errors.New("internal_error")
)

// Error is a domain failure with a kind and a reason code.
type Error struct {
	Kind   error
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// New returns an *Error of the given kind.
func New(kind error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap returns an *Error of the given kind that also carries err.
func Wrap(kind error, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

func InvalidInput(reason string) *Error { return New(ErrInvalidInput, reason) }
func Unauthorized(reason string) *Error { return New(ErrUnauthorized, reason) }
func Forbidden(reason string) *Error    { return New(ErrForbidden, reason) }
func NotFound(reason string) *Error     { return New(ErrNotFound, reason) }
func Conflict(reason string) *Error     { return New(ErrConflict, reason) }
func Ambiguous(reason string) *Error    { return New(ErrAmbiguous, reason) }

// Reason returns the reason code of err, or "" if err carries none.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// Kind returns the kind of err. Errors that are not an *Error are internal.
func Kind(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Kind != nil {
		return e.Kind
	}
	return ErrInternal
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch Kind(err) {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict, ErrAmbiguous:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
