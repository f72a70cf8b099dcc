// Package errors defines the application error type and the sentinels
// services compare against with errors.Is.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the common failure classes.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrTokenExpired   = errors.New("token expired")
)

// AppError is a structured application error carrying a stable client-facing
// code, a human message, and the HTTP status it maps to. It wraps one of the
// sentinels so call sites can still use errors.Is.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(code, message string, status int, sentinel error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound reports that the named resource does not exist (404).
func NotFound(resource, id string) *AppError {
	return newAppError("NOT_FOUND",
		fmt.Sprintf("%s with id %s not found", resource, id),
		http.StatusNotFound, ErrNotFound)
}

// AlreadyExists reports a uniqueness conflict on the given field (409).
func AlreadyExists(resource, field, value string) *AppError {
	return newAppError("ALREADY_EXISTS",
		fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		http.StatusConflict, ErrAlreadyExists)
}

// InvalidInput reports a request the service refuses to process (400).
func InvalidInput(message string) *AppError {
	return newAppError("INVALID_INPUT", message, http.StatusBadRequest, ErrInvalidInput)
}

// Unauthorized reports missing or unusable credentials (401).
func Unauthorized(message string) *AppError {
	return newAppError("UNAUTHORIZED", message, http.StatusUnauthorized, ErrUnauthorized)
}

// Forbidden reports valid credentials without permission (403).
func Forbidden(message string) *AppError {
	return newAppError("FORBIDDEN", message, http.StatusForbidden, ErrForbidden)
}

// Conflict reports a state conflict other than uniqueness (409).
func Conflict(message string) *AppError {
	return newAppError("CONFLICT", message, http.StatusConflict, ErrConflict)
}

// TokenExpired reports an expired access token (401) with a distinct code
// so clients know to refresh rather than re-authenticate.
func TokenExpired(message string) *AppError {
	return newAppError("TOKEN_EXPIRED", message, http.StatusUnauthorized, ErrTokenExpired)
}

// Internal wraps an unexpected error as a 500. The cause stays available
// for logging via Unwrap; the client message is opaque.
func Internal(err error) *AppError {
	return newAppError("INTERNAL_ERROR", "an internal error occurred",
		http.StatusInternalServerError, err)
}

// Wrap adds context to an error without changing its classification.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus maps an error to its HTTP status code. Unrecognized errors
// are treated as internal.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
