package driving

import (
	"context"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// IndexTrigger starts manual index jobs on the single execution slot
type IndexTrigger interface {
	// Trigger starts a job and returns once it is recorded as running.
	// Returns domain.ErrJobRunning when the slot is occupied.
	Trigger(ctx context.Context, jobType domain.JobType) (*domain.IndexJob, error)
}

// JobController is the operator surface of the index worker
type JobController interface {
	IndexTrigger

	// CancelJob cancels the active job; false when jobID is not the active job
	CancelJob(ctx context.Context, jobID string) (bool, error)

	// Status returns the worker snapshot
	Status(ctx context.Context) (*domain.WorkerStatus, error)

	// ScheduleStatus returns the runtime state of one schedule
	ScheduleStatus(ctx context.Context, scheduleID string) (*domain.ScheduleStatus, error)
}
