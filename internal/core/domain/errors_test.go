package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrAlreadyExists", ErrAlreadyExists, "already exists"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrJobRunning", ErrJobRunning, "index job already running"},
		{"ErrJobTerminal", ErrJobTerminal, "index job already finished"},
		{"ErrIndexRetraction", ErrIndexRetraction, "index retraction failed"},
		{"ErrPartialIndexFailure", ErrPartialIndexFailure, "partial index failure"},
		{"ErrServiceUnavailable", ErrServiceUnavailable, "service unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrJobRunning,
		ErrJobTerminal,
		ErrIndexRetraction,
		ErrPartialIndexFailure,
		ErrServiceUnavailable,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("cron_expression", "invalid cron expression")

	if err.Error() != "validation failed: cron_expression: invalid cron expression" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected validation error to match ErrInvalidInput")
	}

	wrapped := fmt.Errorf("create schedule: %w", err)
	if !IsValidationError(wrapped) {
		t.Error("expected wrapped validation error to be detected")
	}
	if IsValidationError(ErrNotFound) {
		t.Error("ErrNotFound is not a validation error")
	}
}

func TestValidationErrorWithoutField(t *testing.T) {
	err := NewValidationError("", "empty payload")
	if err.Error() != "validation failed: empty payload" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestPartialIndexError(t *testing.T) {
	err := &PartialIndexError{
		Failed: map[string]error{
			"laws-de": errors.New("timeout"),
			"laws-at": errors.New("refused"),
		},
		Attempted: 3,
	}

	if !errors.Is(err, ErrPartialIndexFailure) {
		t.Error("expected PartialIndexError to match ErrPartialIndexFailure")
	}
	if err.Total() {
		t.Error("2 of 3 failures is not total")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "2 of 3 indexes failed") {
		t.Errorf("unexpected message %q", msg)
	}
	if strings.Index(msg, "laws-at") > strings.Index(msg, "laws-de") {
		t.Errorf("expected index names sorted, got %q", msg)
	}

	err.Attempted = 2
	if !err.Total() {
		t.Error("2 of 2 failures is total")
	}
}
