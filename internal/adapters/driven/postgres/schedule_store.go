package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ScheduleStore = (*ScheduleStore)(nil)

const scheduleColumns = `id, name, description, cron_expression, type, enabled, last_run, created_at, updated_at`

// ScheduleStore implements driven.ScheduleStore using PostgreSQL
type ScheduleStore struct {
	db *DB
}

// NewScheduleStore creates a new ScheduleStore
func NewScheduleStore(db *DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// List returns all schedules ordered by name
func (s *ScheduleStore) List(ctx context.Context) ([]*domain.Schedule, error) {
	return s.query(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY name`)
}

// ListEnabled returns enabled schedules ordered by name
func (s *ScheduleStore) ListEnabled(ctx context.Context) ([]*domain.Schedule, error) {
	return s.query(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE enabled ORDER BY name`)
}

// Get retrieves a schedule by ID
func (s *ScheduleStore) Get(ctx context.Context, id string) (*domain.Schedule, error) {
	return scanSchedule(s.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id))
}

// GetByName retrieves a schedule by name
func (s *ScheduleStore) GetByName(ctx context.Context, name string) (*domain.Schedule, error) {
	return scanSchedule(s.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE name = $1`, name))
}

// Save creates or updates a schedule. A name taken by another schedule
// returns domain.ErrAlreadyExists.
func (s *ScheduleStore) Save(ctx context.Context, sched *domain.Schedule) error {
	query := `
		INSERT INTO schedules (id, name, description, cron_expression, type, enabled, last_run, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			cron_expression = EXCLUDED.cron_expression,
			type = EXCLUDED.type,
			enabled = EXCLUDED.enabled,
			last_run = EXCLUDED.last_run,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		sched.ID,
		sched.Name,
		sched.Description,
		sched.CronExpression,
		string(sched.Type),
		sched.Enabled,
		NullTime(sched.LastRun),
		sched.CreatedAt,
		sched.UpdatedAt,
	)
	return mapError(err)
}

// Delete deletes a schedule
func (s *ScheduleStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// UpdateLastRun records when a schedule last fired
func (s *ScheduleStore) UpdateLastRun(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `UPDATE schedules SET last_run = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (s *ScheduleStore) query(ctx context.Context, query string, args ...any) ([]*domain.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []*domain.Schedule{}
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sched)
	}
	return schedules, rows.Err()
}

func scanSchedule(row rowScanner) (*domain.Schedule, error) {
	var sched domain.Schedule
	var jobType string
	var lastRun sql.NullTime

	err := row.Scan(
		&sched.ID,
		&sched.Name,
		&sched.Description,
		&sched.CronExpression,
		&jobType,
		&sched.Enabled,
		&lastRun,
		&sched.CreatedAt,
		&sched.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	sched.Type = domain.JobType(jobType)
	sched.LastRun = TimePtr(lastRun)
	sched.CreatedAt = sched.CreatedAt.UTC()
	sched.UpdatedAt = sched.UpdatedAt.UTC()
	return &sched, nil
}
