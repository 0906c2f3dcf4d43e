// Package apperror provides domain-specific error types for Gatehouse.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error type classifiers. Services and tests switch on
// these rather than on status codes or message text.
const (
	TypeNotFound           = "not_found"
	TypeAlreadyExists      = "already_exists"
	TypeInvalidToken       = "invalid_token"
	TypeInvalidQuery       = "invalid_query"
	TypeInvalidAttribute   = "invalid_attribute"
	TypeBackendUnavailable = "backend_unavailable"
	TypeUnauthorized       = "unauthorized"
	TypeForbidden          = "forbidden"
	TypeBadRequest         = "bad_request"
	TypeInternal           = "internal_error"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 400, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "not_found").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors for the Gatehouse error taxonomy ---

// NewNotFound creates a 404 Not Found error for failed lookups.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeNotFound,
		Message: message,
	}
}

// NewAlreadyExists creates a 409 Conflict error for uniqueness violations.
func NewAlreadyExists(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeAlreadyExists,
		Message: message,
	}
}

// NewInvalidToken creates a 403 Forbidden error for unrecognized session or
// reset tokens.
func NewInvalidToken(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    TypeInvalidToken,
		Message: message,
	}
}

// NewInvalidQuery creates a 400 error for structurally invalid store queries
// (unknown filter attribute, empty filter set).
func NewInvalidQuery(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeInvalidQuery,
		Message: message,
	}
}

// NewInvalidAttribute creates a 400 error for update requests that name a
// field which is not a recognized user attribute.
func NewInvalidAttribute(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeInvalidAttribute,
		Message: message,
	}
}

// NewBackendUnavailable creates a 503 error for an unreachable store. The
// real error is kept in Internal for logging.
func NewBackendUnavailable(err error) *AppError {
	return &AppError{
		Code:     http.StatusServiceUnavailable,
		Type:     TypeBackendUnavailable,
		Message:  "The service is temporarily unavailable. Please try again later.",
		Internal: err,
	}
}

// NewUnauthorized creates a 401 Unauthorized error.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeUnauthorized,
		Message: message,
	}
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeBadRequest,
		Message: message,
	}
}

// NewForbidden creates a 403 Forbidden error.
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    TypeForbidden,
		Message: message,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     TypeInternal,
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// IsType reports whether err is an *AppError with the given Type classifier.
func IsType(err error, errType string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like table names, query structure, or stack traces.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
