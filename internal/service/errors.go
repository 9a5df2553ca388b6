package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNoAnswer is returned when a practice check targets a record without an answer.
	ErrNoAnswer = errors.New("record has no answer")
	// ErrAlreadyAnswered is returned when learning mode targets a record that has an answer.
	ErrAlreadyAnswered = errors.New("record already has an answer")
	// ErrDuplicate is returned when uploaded content is already in the vault.
	ErrDuplicate = errors.New("duplicate content")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
