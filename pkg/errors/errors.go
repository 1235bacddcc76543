// Package errors is the error taxonomy shared by services and handlers. Every AppError
// carries the HTTP status it maps to and unwraps to one of the sentinels below.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound                   = errors.New("resource not found")
	ErrBadRequest                 = errors.New("bad request")
	ErrInvalidInput               = errors.New("invalid input")
	ErrConflict                   = errors.New("resource conflict")
	ErrInternal                   = errors.New("internal server error")
	ErrValidation                 = errors.New("validation error")
	ErrPersistence                = errors.New("persistence failure")
	ErrConfigurationInconsistency = errors.New("configuration inconsistency")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(kind error, code string, status int, message string) *AppError {
	return &AppError{Err: kind, Code: code, StatusCode: status, Message: message}
}

// NotFound reports a missing resource, e.g. NotFound("company").
func NotFound(resource string) *AppError {
	return newAppError(ErrNotFound, "NOT_FOUND", http.StatusNotFound, resource+" not found")
}

// BadRequest is for malformed requests: unreadable bodies, bad headers, broken references.
func BadRequest(message string) *AppError {
	return newAppError(ErrBadRequest, "BAD_REQUEST", http.StatusBadRequest, message)
}

// InvalidInput is returned for caller mistakes that are rejected before any side effect.
func InvalidInput(message string) *AppError {
	return newAppError(ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, message)
}

func Conflict(message string) *AppError {
	return newAppError(ErrConflict, "CONFLICT", http.StatusConflict, message)
}

func Internal(message string) *AppError {
	return newAppError(ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError, message)
}

// Validation reports field errors keyed by field name.
func Validation(details map[string]string) *AppError {
	e := newAppError(ErrValidation, "VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	e.Details = details
	return e
}

// PersistenceFailure wraps a failed write. The cause stays reachable through errors.Is.
func PersistenceFailure(operation string, err error) *AppError {
	return newAppError(fmt.Errorf("%w: %w", ErrPersistence, err), "PERSISTENCE_FAILURE",
		http.StatusInternalServerError, "failed to "+operation)
}

// ConfigurationInconsistency reports master data the engine cannot work with, such as a
// shift whose half-day threshold is not below its minimum hours.
func ConfigurationInconsistency(message string) *AppError {
	return newAppError(ErrConfigurationInconsistency, "CONFIGURATION_INCONSISTENCY",
		http.StatusUnprocessableEntity, message)
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
