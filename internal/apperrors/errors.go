package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal is returned when an unexpected failure should not leak details to callers.
var ErrInternal = errors.New("internal error")

// ErrUnauthorized indicates a missing or invalid actor.
var ErrUnauthorized = errors.New("unauthorized")

// Ledger error kinds.
var (
	// ErrNotBalanced is returned when total debits and credits differ by more than the tolerance.
	ErrNotBalanced = errors.New("journal entry is not balanced")
	// ErrInsufficientLines is returned when an entry with fewer than two lines is posted.
	ErrInsufficientLines = errors.New("journal entry needs at least two lines")
	// ErrInvalidState is returned for an illegal status transition.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrInvalidAmount is returned for zero or negative posting amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrMissingAccount is returned when a required account code cannot be resolved.
	ErrMissingAccount = errors.New("required account is missing")
	// ErrAccountInUse is returned when deleting a system account or one referenced by journal lines.
	ErrAccountInUse = errors.New("account is in use")
	// ErrDuplicatePosting is returned when the (record, stage) posting already exists.
	ErrDuplicatePosting = errors.New("duplicate posting")
	// ErrConcurrencyConflict is returned when a lock or serializable transaction could not be obtained.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
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

// NewAppError wraps err with a status code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

// NewValidationError returns an AppError that matches ErrValidation.
func NewValidationError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message, Err: ErrValidation}
}

// StatusCode maps an error chain to the HTTP status the handlers respond with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrNotBalanced),
		errors.Is(err, ErrInsufficientLines):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrDuplicatePosting),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrAccountInUse),
		errors.Is(err, ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, ErrMissingAccount):
		// configuration problem, not the caller's fault
		return http.StatusUnprocessableEntity
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
