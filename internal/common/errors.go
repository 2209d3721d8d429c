package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure taxonomy. Everything below degrades to "no record produced" inside
// the pipeline; only programmer errors are allowed past the orchestrator.
var (
	ErrUnreadableInput = errors.New("unreadable input")
	ErrNoContent       = errors.New("no content")
	ErrExternalService = errors.New("external service failure")
	ErrDuplicate       = errors.New("duplicate invoice")
	ErrInvalidInput    = errors.New("invalid input")
)

// NewAppError builds an AppError with an optional cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
