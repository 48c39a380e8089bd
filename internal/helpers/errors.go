package helpers

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures so callers can tell them apart without string matching.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindInternal        Kind = "internal"
)

// HTTPStatus maps a kind to the status code handlers respond with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type AppError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Unauthenticated(reason string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Reason: reason}
}

func Validation(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Reason: fmt.Sprintf(format, args...)}
}

func Conflict(reason string) *AppError {
	return &AppError{Kind: KindConflict, Reason: reason}
}

func NotFound(reason string) *AppError {
	return &AppError{Kind: KindNotFound, Reason: reason}
}

func Forbidden(reason string) *AppError {
	return &AppError{Kind: KindForbidden, Reason: reason}
}

// Internal wraps a storage or infrastructure failure. Only the wrapped error
// carries detail, and it is only logged.
func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Reason: "internal server error", Err: err}
}

// KindOf reports the kind of err, treating anything unclassified as internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ReasonOf returns the user-facing reason for err.
func ReasonOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return "internal server error"
}
