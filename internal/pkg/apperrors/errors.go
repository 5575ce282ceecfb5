package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrValidation = errors.New("validation failed")

	ErrAlreadyExists = errors.New("resource already exists")

	// ErrDuplicateNickname is the blocking precondition raised before any
	// write when a customer nickname is already taken (case-insensitive).
	ErrDuplicateNickname = errors.New("nickname already in use")

	// ErrMissingIndex is the precondition failure raised by a range query
	// combined with ordering on another field when the store has no
	// composite index. Callers fall back to a full fetch and in-memory
	// filtering.
	ErrMissingIndex = errors.New("query requires a composite index")

	ErrStore = errors.New("document store error")

	ErrInternalServer = errors.New("internal server error")

	ErrUnauthorized = errors.New("unauthorized")
)

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func WrapStoreError(cause error, message string) error {
	return &AppError{
		Code:    "STORE_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrStore, cause),
	}
}
