package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	return uuid.NewString()
}

// JobType identifies the kind of index run
type JobType string

const (
	// JobTypeFull re-indexes every document regardless of status
	JobTypeFull JobType = "full"
	// JobTypeIncremental re-indexes pending and failed documents only
	JobTypeIncremental JobType = "incremental"
)

// IsValid reports whether the job type is known.
func (t JobType) IsValid() bool {
	return t == JobTypeFull || t == JobTypeIncremental
}

// ManualScheduleID is the schedule reference of jobs started by an operator
const ManualScheduleID = "manual"

// JobStatus represents the current state of an index job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// IndexJob is one execution of a schedule or manual trigger
type IndexJob struct {
	ID          string     `json:"id"`
	ScheduleID  string     `json:"schedule_id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Progress    *float64   `json:"progress,omitempty"`
	TotalItems  *int       `json:"total_items,omitempty"`
	Processed   *int       `json:"processed,omitempty"`
	Error       string     `json:"error,omitempty"`

	// Schedule is joined in by status reads; nil for manual jobs
	Schedule *Schedule `json:"schedule,omitempty"`
}

// NewIndexJob creates a job in the running state.
func NewIndexJob(scheduleID string, jobType JobType) *IndexJob {
	if scheduleID == "" {
		scheduleID = ManualScheduleID
	}
	return &IndexJob{
		ID:         GenerateID(),
		ScheduleID: scheduleID,
		Type:       jobType,
		Status:     JobStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
}

// IsManual reports whether the job was started by an operator.
func (j *IndexJob) IsManual() bool {
	return j.ScheduleID == ManualScheduleID
}

// SetTotal records the number of items the run will process.
func (j *IndexJob) SetTotal(total int) {
	j.TotalItems = &total
}

// RecordProgress stores the processed counter and derived percentage.
// The counter never decreases within one job.
func (j *IndexJob) RecordProgress(processed int) {
	if j.Processed != nil && processed < *j.Processed {
		processed = *j.Processed
	}
	total := 0
	if j.TotalItems != nil {
		total = *j.TotalItems
	}
	progress := ComputeProgress(processed, total)
	j.Processed = &processed
	j.Progress = &progress
}

// Finish moves the job to a terminal status exactly once.
func (j *IndexJob) Finish(status JobStatus, errMsg string, at time.Time) error {
	if j.Status.IsTerminal() {
		return ErrJobTerminal
	}
	if !status.IsTerminal() {
		return NewValidationError("status", "not a terminal status")
	}
	j.Status = status
	j.Error = errMsg
	j.CompletedAt = &at
	return nil
}

// Duration returns how long the job ran, or has been running.
func (j *IndexJob) Duration() time.Duration {
	if j.CompletedAt != nil {
		return j.CompletedAt.Sub(j.StartedAt)
	}
	return time.Since(j.StartedAt)
}

// ComputeProgress returns min(100, processed/total*100), and 100 for an empty run.
func ComputeProgress(processed, total int) float64 {
	if total <= 0 {
		return 100
	}
	return math.Min(100, float64(processed)/float64(total)*100)
}

// ProgressFunc receives progress after every batch
type ProgressFunc func(processed, total int, progress float64)

// IndexRunResult summarizes a full or incremental run
type IndexRunResult struct {
	Total     int
	Processed int
	Batches   int
	// Touched lists the indexes that accepted at least one batch
	Touched []string
	// Warnings carries per-index partial failures, one entry per failed write
	Warnings []string
}

// WarningSummary joins partial failure messages for the job telemetry field.
func (r *IndexRunResult) WarningSummary() string {
	if r == nil || len(r.Warnings) == 0 {
		return ""
	}
	const maxWarnings = 20
	warnings := r.Warnings
	suffix := ""
	if len(warnings) > maxWarnings {
		suffix = "; ..."
		warnings = warnings[:maxWarnings]
	}
	return "partial index failures: " + strings.Join(warnings, "; ") + suffix
}
