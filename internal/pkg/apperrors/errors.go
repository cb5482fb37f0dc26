// internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind int

const (
	KindValidation Kind = iota
	KindIllegalTransition
	KindTenantMismatch
	KindNotFound
	KindConflict
	KindInternal
)

// Error is the typed error returned by all domain services. Code is a stable
// machine-readable identifier; Message is safe to surface to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed input caught before any mutation.
func Validation(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// IllegalTransition reports a status change outside the legal transition table.
func IllegalTransition(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindIllegalTransition, Code: code, Message: fmt.Sprintf(format, args...)}
}

// TenantMismatch reports an operation referencing another tenant's entity.
func TenantMismatch(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindTenantMismatch, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity (or one filtered out by tenant scope).
func NotFound(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a lost race on an aggregate's legality precondition.
func Conflict(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected infrastructure failure. The wrapped error is
// kept for logging; the message surfaced to callers stays generic.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: "internal error", Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// CodeOf returns the machine code of err, or "internal" for untyped errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// HTTPStatus maps an error to the status code handlers should respond with.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindIllegalTransition:
		return http.StatusConflict
	case KindTenantMismatch:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
