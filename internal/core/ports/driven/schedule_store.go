package driven

import (
	"context"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// ScheduleStore persists schedule definitions
type ScheduleStore interface {
	// List returns all schedules ordered by name
	List(ctx context.Context) ([]*domain.Schedule, error)

	// ListEnabled returns enabled schedules ordered by name
	ListEnabled(ctx context.Context) ([]*domain.Schedule, error)

	// Get retrieves a schedule by ID
	Get(ctx context.Context, id string) (*domain.Schedule, error)

	// GetByName retrieves a schedule by its unique name
	GetByName(ctx context.Context, name string) (*domain.Schedule, error)

	// Save creates or updates a schedule
	Save(ctx context.Context, s *domain.Schedule) error

	// Delete deletes a schedule
	Delete(ctx context.Context, id string) error

	// UpdateLastRun records when a schedule last fired
	UpdateLastRun(ctx context.Context, id string, at time.Time) error
}

// JobStore persists index jobs
type JobStore interface {
	// Create inserts a new job
	Create(ctx context.Context, job *domain.IndexJob) error

	// Get retrieves a job with its schedule joined in
	Get(ctx context.Context, id string) (*domain.IndexJob, error)

	// ListRecent returns the most recently started jobs with schedules joined in
	ListRecent(ctx context.Context, limit int) ([]*domain.IndexJob, error)

	// LastForSchedule returns the most recent job of a schedule
	LastForSchedule(ctx context.Context, scheduleID string) (*domain.IndexJob, error)

	// SetTotal records the total item count of a running job
	SetTotal(ctx context.Context, id string, total int) error

	// UpdateProgress records progress of a running job. Updates to a job
	// that already reached a terminal status are ignored.
	UpdateProgress(ctx context.Context, id string, processed int, progress float64) error

	// Finish moves a running job to a terminal status. It reports false when
	// the job was no longer running, leaving the stored status unchanged.
	Finish(ctx context.Context, id string, status domain.JobStatus, errMsg string, at time.Time) (bool, error)

	// FailStale marks jobs left running by a previous process as failed
	FailStale(ctx context.Context, reason string, at time.Time) (int, error)
}
