// Package errors provides the coded error taxonomy of the catalog editor.
//
// Usage:
//
//	// In the engine - return typed errors
//	if _, err := strconv.ParseInt(v, 10, 64); err != nil {
//	    return errors.Validationf("%s must be an integer", key)
//	}
//
//	// At the boundary - check with errors.Is
//	if errors.Is(err, errors.ErrNotReady) {
//	    // keep the modal open, tell the user to wait for the upload
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeValidation  Code = "VALIDATION"   // bad or missing field, never reaches the network
	CodeUpload      Code = "UPLOAD"       // recoverable, previous image kept
	CodeInvalidMode Code = "INVALID_MODE" // programming defect in builder wiring
	CodeMutation    Code = "MUTATION"     // backend rejected a create/update/delete
	CodeNotReady    Code = "NOT_READY"    // submit while an upload is in flight
	CodeConflict    Code = "CONFLICT"
	CodeNotFound    Code = "NOT_FOUND"
	CodeInternal    Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUpload, CodeMutation:
		return http.StatusBadGateway
	case CodeNotReady:
		return http.StatusTooEarly
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the user may retry the same action without re-entering data.
func (c Code) Retryable() bool {
	switch c {
	case CodeUpload, CodeMutation, CodeNotReady:
		return true
	default:
		return false
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// GetStatus is HTTPStatus under the name HTTP frameworks look for.
func (e *Error) GetStatus() int {
	return e.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrValidation  = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUpload      = &Error{Code: CodeUpload, Message: "upload failed"}
	ErrInvalidMode = &Error{Code: CodeInvalidMode, Message: "invalid mode"}
	ErrMutation    = &Error{Code: CodeMutation, Message: "mutation failed"}
	ErrNotReady    = &Error{Code: CodeNotReady, Message: "image upload still in progress"}
	ErrConflict    = &Error{Code: CodeConflict, Message: "conflict"}
	ErrNotFound    = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInternal    = &Error{Code: CodeInternal, Message: "internal error"}
)

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Upload wraps a failed upload.
func Upload(err error) *Error {
	return &Error{Code: CodeUpload, Message: "Error uploading file.", cause: err}
}

// InvalidModef creates an invalid mode error with formatted message.
func InvalidModef(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidMode, Message: fmt.Sprintf(format, args...)}
}

// Mutation wraps a backend rejection.
func Mutation(op string, err error) *Error {
	return &Error{Code: CodeMutation, Message: op + " failed", cause: err}
}

// NotReady creates a not ready error.
func NotReady(msg string) *Error {
	return &Error{Code: CodeNotReady, Message: msg}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
