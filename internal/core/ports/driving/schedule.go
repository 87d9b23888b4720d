package driving

import (
	"context"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// CreateScheduleRequest represents a request to create a schedule
type CreateScheduleRequest struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	CronExpression string         `json:"cron_expression"`
	Type           domain.JobType `json:"type"`
	Enabled        *bool          `json:"enabled,omitempty"`
}

// UpdateScheduleRequest represents a request to update a schedule
type UpdateScheduleRequest struct {
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	CronExpression *string         `json:"cron_expression,omitempty"`
	Type           *domain.JobType `json:"type,omitempty"`
	Enabled        *bool           `json:"enabled,omitempty"`
}

// ScheduleService manages the schedule registry
type ScheduleService interface {
	// Create validates and stores a new schedule
	Create(ctx context.Context, req CreateScheduleRequest) (*domain.Schedule, error)

	// Update applies a partial update, validating the cron expression when present
	Update(ctx context.Context, id string, req UpdateScheduleRequest) (*domain.Schedule, error)

	// Delete deletes a schedule
	Delete(ctx context.Context, id string) error

	// Get retrieves a schedule with its next run computed
	Get(ctx context.Context, id string) (*domain.Schedule, error)

	// List returns all schedules with their next runs computed
	List(ctx context.Context) ([]*domain.Schedule, error)

	// Validate checks a cron expression
	Validate(expr string) error

	// NextRun returns the first activation of expr after from
	NextRun(expr string, from time.Time) (time.Time, error)

	// Preview returns the next n activations of expr after from
	Preview(expr string, from time.Time, n int) ([]time.Time, error)

	// Describe renders a cron expression as a sentence
	Describe(expr string) (string, error)
}
