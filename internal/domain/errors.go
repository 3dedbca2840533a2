package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Application error codes
const (
	EINVALID      = "invalid"      // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized" // Authentication required
	EFORBIDDEN    = "forbidden"    // Permission denied
	ENOTFOUND     = "not_found"    // Resource not found
	ECONFLICT     = "conflict"     // State conflict (duplicate, already approved)
	ETOOLARGE     = "too_large"    // Request entity too large
	ERATELIMIT    = "rate_limit"   // Rate limit exceeded
	EUNAVAILABLE  = "unavailable"  // Record store or blob store unreachable
	EINTERNAL     = "internal"     // Internal server error
)

const genericMessage = "An internal error occurred. Please try again later."

// Error is an application error. Message is safe to show to clients except
// for EINTERNAL and EUNAVAILABLE, whose messages are replaced by ErrorMessage.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "ReportService.Approve")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates an Error with a formatted message.
func Errorf(code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and client message to err.
func Wrap(err error, code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// =============================================================================
// Classification
// =============================================================================

// ErrorCode returns the code of the outermost application error, or
// EINTERNAL for anything else. Submission and validation errors are EINVALID.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	var se *SubmissionError
	var ve *ValidationError
	switch {
	case errors.As(err, &e):
		return e.Code
	case errors.As(err, &se), errors.As(err, &ve):
		return EINVALID
	}
	return EINTERNAL
}

// ErrorMessage returns the message a client may see.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	var se *SubmissionError
	var ve *ValidationError
	switch {
	case errors.As(err, &se):
		return se.Error()
	case errors.As(err, &ve):
		return "Validation failed"
	case errors.As(err, &e):
		switch e.Code {
		case EINTERNAL:
			return genericMessage
		case EUNAVAILABLE:
			return "The record store is temporarily unavailable. Please try again later."
		}
		return e.Message
	}
	return genericMessage
}

// ErrorOp returns the operation of the outermost application error.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Op
	}
	return ""
}

// IsUnavailable reports whether err means the backend could not be reached.
func IsUnavailable(err error) bool {
	return ErrorCode(err) == EUNAVAILABLE
}

// =============================================================================
// Constructors
// =============================================================================

func NotFound(op, resource, id string) *Error {
	return Errorf(ENOTFOUND, op, "%s %q not found", resource, id)
}

func Invalid(op, message string) *Error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

func Unauthorized(op, message string) *Error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

func Conflict(op, message string) *Error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// AlreadyApproved is returned when an approval targets a report that has
// already left the PENDING state.
func AlreadyApproved(op string, reportID int64) *Error {
	return Errorf(ECONFLICT, op, "report %d is already approved", reportID)
}

// Unavailable wraps a backend failure. Write paths must return it as is.
func Unavailable(err error, op string) *Error {
	return Wrap(err, EUNAVAILABLE, op, "backend unavailable")
}

func Internal(err error, op, message string) *Error {
	return Wrap(err, EINTERNAL, op, message)
}

func RateLimit(op string) *Error {
	return &Error{Code: ERATELIMIT, Op: op, Message: "Too many requests. Please try again later."}
}

// =============================================================================
// Field Errors
// =============================================================================

// ValidationError maps request fields to messages.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: validation failed (%s)", e.Op, strings.Join(names, ", "))
}

// NewValidationError creates a validation error for one field.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}
