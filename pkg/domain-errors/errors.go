// Package domainerrors defines coded errors that services return and the HTTP
// boundary translates into status codes.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into *Error values with a stable Code. Only httputil.WriteError decides
// the HTTP status for a code.
package domainerrors

import (
	"errors"
	"maps"
	"time"
)

// Code is a stable, client-visible error identifier.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeUnsupportedType    Code = "unsupported_document_type"
	CodeSizeLimitExceeded  Code = "file_too_large"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeCooldownActive     Code = "cooldown_active"
	CodeResubmissionLimit  Code = "resubmission_limit_exceeded"
	CodeImmutableState     Code = "immutable_state"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a domain error carrying a code, a client-safe message and optional
// field-level details.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	Err     error

	// Retry is set on errors that clear on their own, such as an active cooldown.
	Retry time.Duration
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RetryAfter reports how long the caller should wait before retrying.
func (e *Error) RetryAfter() time.Duration {
	return e.Retry
}

// Is matches another *Error with the same code and, when the target carries
// one, the same message. This keeps require.ErrorIs usable in tests.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// WithFields builds an error carrying per-field details, keyed by the JSON
// field path the client sent.
func WithFields(code Code, message string, fields map[string]string) error {
	return &Error{Code: code, Message: message, Fields: maps.Clone(fields)}
}

// WithRetryAfter builds an error the caller may retry after d.
func WithRetryAfter(code Code, message string, d time.Duration) error {
	return &Error{Code: code, Message: message, Retry: d}
}

// HasCode reports whether any error in err's chain is a domain error with code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost domain error code, or CodeInternal for plain errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldsOf returns field details of the outermost domain error, if any.
func FieldsOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}
