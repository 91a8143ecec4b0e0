package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrStaleResult marks the result of a superseded fetch or search. It is the
// internal half of the last-write-wins mechanism and is never user-visible.
var ErrStaleResult = errors.New("stale result discarded")

// ValidationError is a client-detected input problem. It blocks submission
// before any network call is made.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records another field problem and returns the error for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

// Empty reports whether any field problem was recorded.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NetworkError wraps a transport failure or timeout talking to the backend.
// The caller may retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerRejection is a 4xx/5xx response from the backend. Detail is surfaced
// to the user verbatim.
type ServerRejection struct {
	StatusCode int
	Detail     string
}

func (e *ServerRejection) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server rejected request (%d)", e.StatusCode)
}

// IsRetryable reports whether the error is transient from the caller's point
// of view. Validation errors and server rejections are not.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// AppError carries an HTTP status code and a user-facing message through the
// handler layer.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Common error constructors
func BadRequestError(message string, err error) *AppError {
	return NewAppError(400, message, err)
}

func UnauthorizedError(message string, err error) *AppError {
	return NewAppError(401, message, err)
}

func NotFoundError(message string, err error) *AppError {
	return NewAppError(404, message, err)
}

func BadGatewayError(message string, err error) *AppError {
	return NewAppError(502, message, err)
}

func InternalServerError(message string, err error) *AppError {
	return NewAppError(500, message, err)
}
