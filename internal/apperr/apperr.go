// Package apperr defines the error kinds shared by the domain packages and
// mapped to HTTP statuses by the handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind string

const (
	KindPermissionDenied    Kind = "PERMISSION_DENIED"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindInaccurateFix       Kind = "INACCURATE_FIX"
	KindLocationUnavailable Kind = "LOCATION_UNAVAILABLE"
	KindValidation          Kind = "VALIDATION_ERROR"
	KindNotFound            Kind = "NOT_FOUND"
	KindConflict            Kind = "CONFLICT"
)

// Error is a classified domain error. Code is a stable machine-readable
// identifier, Message is safe to show to the user.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, apperr.ErrPermissionDenied).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// New creates an error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Kind sentinels. They carry no code so they match every error of their kind.
var (
	ErrPermissionDenied    = &Error{Kind: KindPermissionDenied, Message: "Permission denied"}
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition, Message: "Transition not allowed"}
	ErrInaccurateFix       = &Error{Kind: KindInaccurateFix, Message: "GPS fix is not accurate enough"}
	ErrLocationUnavailable = &Error{Kind: KindLocationUnavailable, Message: "Location unavailable"}
	ErrValidation          = &Error{Kind: KindValidation, Message: "Validation failed"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "Resource not found"}
	ErrConflict            = &Error{Kind: KindConflict, Message: "Resource was modified by another request"}
)

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
