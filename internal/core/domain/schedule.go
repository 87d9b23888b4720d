package domain

import (
	"strings"
	"time"
)

// Schedule is a recurring index job definition
type Schedule struct {
	ID             string     `json:"id" yaml:"-"`
	Name           string     `json:"name" yaml:"name"`
	Description    string     `json:"description" yaml:"description"`
	CronExpression string     `json:"cron_expression" yaml:"cron"`
	Type           JobType    `json:"type" yaml:"type"`
	Enabled        bool       `json:"enabled" yaml:"enabled"`
	LastRun        *time.Time `json:"last_run,omitempty" yaml:"-"`
	CreatedAt      time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time  `json:"updated_at" yaml:"-"`

	// NextRun is derived from the cron expression on every read and never persisted
	NextRun *time.Time `json:"next_run,omitempty" yaml:"-"`
}

// NewSchedule creates an enabled schedule.
func NewSchedule(name, description, cronExpression string, jobType JobType) *Schedule {
	now := time.Now().UTC()
	return &Schedule{
		ID:             GenerateID(),
		Name:           name,
		Description:    description,
		CronExpression: strings.TrimSpace(cronExpression),
		Type:           jobType,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate checks the persisted shape except the cron syntax, which is
// validated by the cron parser.
func (s *Schedule) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name", "must not be empty")
	}
	if strings.TrimSpace(s.CronExpression) == "" {
		return NewValidationError("cron_expression", "must not be empty")
	}
	if !s.Type.IsValid() {
		return NewValidationError("type", "must be full or incremental")
	}
	return nil
}

// Anchor is the instant the next due run is computed from.
func (s *Schedule) Anchor() time.Time {
	if s.LastRun != nil {
		return *s.LastRun
	}
	return s.CreatedAt
}

// ScheduleStatus is a schedule joined with its runtime state
type ScheduleStatus struct {
	Schedule  *Schedule `json:"schedule"`
	NextRun   time.Time `json:"next_run"`
	LastJob   *IndexJob `json:"last_job,omitempty"`
	IsRunning bool      `json:"is_running"`
}
