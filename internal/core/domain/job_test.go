package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	id1 := GenerateID()
	id2 := GenerateID()

	if id1 == "" || id2 == "" {
		t.Error("expected non-empty ID")
	}
	if id1 == id2 {
		t.Error("expected unique IDs")
	}
	// canonical UUID text form
	if len(id1) != 36 {
		t.Errorf("expected ID length 36, got %d", len(id1))
	}
}

func TestNewIndexJob(t *testing.T) {
	job := NewIndexJob("sched-1", JobTypeFull)

	if job.ID == "" {
		t.Error("expected non-empty ID")
	}
	if job.Status != JobStatusRunning {
		t.Errorf("expected status running, got %s", job.Status)
	}
	if job.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
	if job.IsManual() {
		t.Error("expected scheduled job")
	}

	manual := NewIndexJob("", JobTypeIncremental)
	if manual.ScheduleID != ManualScheduleID || !manual.IsManual() {
		t.Errorf("expected manual schedule id, got %s", manual.ScheduleID)
	}
}

func TestJobTypeIsValid(t *testing.T) {
	if !JobTypeFull.IsValid() || !JobTypeIncremental.IsValid() {
		t.Error("expected known job types to be valid")
	}
	if JobType("partial").IsValid() {
		t.Error("expected unknown job type to be invalid")
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   JobStatus
		terminal bool
	}{
		{JobStatusPending, false},
		{JobStatusRunning, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
		{JobStatusCancelled, true},
	}
	for _, tt := range tests {
		if tt.status.IsTerminal() != tt.terminal {
			t.Errorf("%s: IsTerminal() = %v, want %v", tt.status, tt.status.IsTerminal(), tt.terminal)
		}
	}
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		processed, total int
		want             float64
	}{
		{0, 0, 100},
		{0, 120, 0},
		{50, 120, 50.0 / 120 * 100},
		{120, 120, 100},
		{130, 120, 100},
	}
	for _, tt := range tests {
		if got := ComputeProgress(tt.processed, tt.total); got != tt.want {
			t.Errorf("ComputeProgress(%d, %d) = %v, want %v", tt.processed, tt.total, got, tt.want)
		}
	}
}

func TestRecordProgressIsMonotonic(t *testing.T) {
	job := NewIndexJob("sched-1", JobTypeFull)
	job.SetTotal(120)

	job.RecordProgress(50)
	job.RecordProgress(100)
	job.RecordProgress(60)

	if *job.Processed != 100 {
		t.Errorf("expected processed to stay at 100, got %d", *job.Processed)
	}
	if *job.Progress < 83 || *job.Progress > 84 {
		t.Errorf("expected progress ~83.3, got %v", *job.Progress)
	}
}

func TestJobFinishOnce(t *testing.T) {
	job := NewIndexJob("sched-1", JobTypeFull)
	at := time.Now()

	if err := job.Finish(JobStatusCancelled, "", at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.CompletedAt == nil || !job.CompletedAt.Equal(at) {
		t.Error("expected CompletedAt to be stamped")
	}

	err := job.Finish(JobStatusFailed, "boom", at.Add(time.Second))
	if !errors.Is(err, ErrJobTerminal) {
		t.Fatalf("expected ErrJobTerminal, got %v", err)
	}
	if job.Status != JobStatusCancelled {
		t.Errorf("expected cancelled to win, got %s", job.Status)
	}
}

func TestJobFinishRejectsNonTerminal(t *testing.T) {
	job := NewIndexJob("sched-1", JobTypeFull)
	if err := job.Finish(JobStatusRunning, "", time.Now()); !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWarningSummary(t *testing.T) {
	var empty *IndexRunResult
	if empty.WarningSummary() != "" {
		t.Error("expected empty summary for nil result")
	}

	r := &IndexRunResult{Warnings: []string{"laws-de: timeout"}}
	if r.WarningSummary() != "partial index failures: laws-de: timeout" {
		t.Errorf("unexpected summary %q", r.WarningSummary())
	}

	for i := 0; i < 30; i++ {
		r.Warnings = append(r.Warnings, "x")
	}
	if !strings.HasSuffix(r.WarningSummary(), "; ...") {
		t.Error("expected truncated summary")
	}
}
