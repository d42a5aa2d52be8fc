package service

import (
	"errors"
	"fmt"
)

// Service-level sentinel errors.
var (
	// ErrGenerationInProgress is returned when a deck that is generating and
	// already has recorded videos is resubmitted. Resubmitting would clobber
	// in-flight results; the caller must wait for the round to settle.
	ErrGenerationInProgress = errors.New("deck generation already in progress")

	// ErrDeckFull is returned when adding a card would exceed the configured
	// maximum number of cards per deck.
	ErrDeckFull = errors.New("deck card limit reached")

	// ErrScanInProgress is reported when a retroactive failed-task scan is
	// requested while another scan is still running.
	ErrScanInProgress = errors.New("failed-task scan already in progress")
)

// DeckServiceError is a custom error type for deck service errors.
type DeckServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for DeckServiceError.
func (e *DeckServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deck service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("deck service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *DeckServiceError) Unwrap() error {
	return e.Err
}

// NewDeckServiceError creates a new DeckServiceError.
func NewDeckServiceError(operation, message string, err error) *DeckServiceError {
	return &DeckServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
