package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrJobRunning indicates the single execution slot is occupied
	ErrJobRunning = errors.New("index job already running")

	// ErrJobTerminal indicates a job has already reached a terminal status
	ErrJobTerminal = errors.New("index job already finished")

	// ErrIndexRetraction indicates a document could not be removed from every index
	ErrIndexRetraction = errors.New("index retraction failed")

	// ErrPartialIndexFailure indicates at least one index rejected a batch
	ErrPartialIndexFailure = errors.New("partial index failure")

	// ErrServiceUnavailable indicates the search engine could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ValidationError describes input rejected at the API boundary.
// It never enters the job pipeline.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// PartialIndexError records which indexes rejected a batch while others accepted it.
type PartialIndexError struct {
	// Failed maps index name to the error returned by the search engine
	Failed map[string]error
	// Attempted is the number of enabled indexes the batch was written to
	Attempted int
}

func (e *PartialIndexError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name, err := range e.Failed {
		names = append(names, fmt.Sprintf("%s: %v", name, err))
	}
	sort.Strings(names)
	return fmt.Sprintf("%d of %d indexes failed: %s", len(e.Failed), e.Attempted, strings.Join(names, "; "))
}

// Unwrap lets callers match with errors.Is(err, ErrPartialIndexFailure).
func (e *PartialIndexError) Unwrap() error {
	return ErrPartialIndexFailure
}

// Total reports whether every attempted index failed.
func (e *PartialIndexError) Total() bool {
	return e.Attempted > 0 && len(e.Failed) == e.Attempted
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
