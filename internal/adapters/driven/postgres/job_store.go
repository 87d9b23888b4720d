package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.JobStore = (*JobStore)(nil)

// jobSelect joins the schedule of non-manual jobs
const jobSelect = `
	SELECT j.id, j.schedule_id, j.type, j.status, j.started_at, j.completed_at,
	       j.progress, j.total_items, j.processed, j.error,
	       s.id, s.name, s.description, s.cron_expression, s.type, s.enabled,
	       s.last_run, s.created_at, s.updated_at
	FROM index_jobs j
	LEFT JOIN schedules s ON s.id = j.schedule_id
`

// JobStore implements driven.JobStore using PostgreSQL
type JobStore struct {
	db *DB
}

// NewJobStore creates a new JobStore
func NewJobStore(db *DB) *JobStore {
	return &JobStore{db: db}
}

// Create inserts a new job
func (s *JobStore) Create(ctx context.Context, job *domain.IndexJob) error {
	query := `
		INSERT INTO index_jobs (id, schedule_id, type, status, started_at, completed_at, progress, total_items, processed, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.ScheduleID,
		string(job.Type),
		string(job.Status),
		job.StartedAt,
		NullTime(job.CompletedAt),
		NullFloat(job.Progress),
		NullInt(job.TotalItems),
		NullInt(job.Processed),
		job.Error,
	)
	return mapError(err)
}

// Get retrieves a job with its schedule joined in
func (s *JobStore) Get(ctx context.Context, id string) (*domain.IndexJob, error) {
	return scanJob(s.db.QueryRowContext(ctx, jobSelect+` WHERE j.id = $1`, id))
}

// ListRecent returns the most recently started jobs
func (s *JobStore) ListRecent(ctx context.Context, limit int) ([]*domain.IndexJob, error) {
	rows, err := s.db.QueryContext(ctx, jobSelect+` ORDER BY j.started_at DESC, j.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*domain.IndexJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// LastForSchedule returns the most recent job of a schedule
func (s *JobStore) LastForSchedule(ctx context.Context, scheduleID string) (*domain.IndexJob, error) {
	return scanJob(s.db.QueryRowContext(ctx,
		jobSelect+` WHERE j.schedule_id = $1 ORDER BY j.started_at DESC LIMIT 1`, scheduleID))
}

// SetTotal records the total item count of a running job
func (s *JobStore) SetTotal(ctx context.Context, id string, total int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE index_jobs SET total_items = $1 WHERE id = $2 AND status = 'running'`, total, id)
	return err
}

// UpdateProgress records progress of a running job
func (s *JobStore) UpdateProgress(ctx context.Context, id string, processed int, progress float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE index_jobs SET processed = GREATEST(COALESCE(processed, 0), $1), progress = $2
		WHERE id = $3 AND status = 'running'`,
		processed, progress, id)
	return err
}

// Finish moves a running job to a terminal status. The status guard makes
// the first terminal write win.
func (s *JobStore) Finish(ctx context.Context, id string, status domain.JobStatus, errMsg string, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE index_jobs SET status = $1, error = $2, completed_at = $3
		WHERE id = $4 AND status = 'running'`,
		string(status), errMsg, at, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM index_jobs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}

// FailStale marks jobs left running by a previous process as failed
func (s *JobStore) FailStale(ctx context.Context, reason string, at time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE index_jobs SET status = 'failed', error = $1, completed_at = $2
		WHERE status = 'running'`,
		reason, at)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func scanJob(row rowScanner) (*domain.IndexJob, error) {
	var job domain.IndexJob
	var jobType, status string
	var completedAt sql.NullTime
	var progress sql.NullFloat64
	var total, processed sql.NullInt64

	var schedID, schedName, schedDesc, schedCron, schedType sql.NullString
	var schedEnabled sql.NullBool
	var schedLastRun, schedCreated, schedUpdated sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.ScheduleID,
		&jobType,
		&status,
		&job.StartedAt,
		&completedAt,
		&progress,
		&total,
		&processed,
		&job.Error,
		&schedID,
		&schedName,
		&schedDesc,
		&schedCron,
		&schedType,
		&schedEnabled,
		&schedLastRun,
		&schedCreated,
		&schedUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	job.StartedAt = job.StartedAt.UTC()
	job.CompletedAt = TimePtr(completedAt)
	job.Progress = FloatPtr(progress)
	job.TotalItems = IntPtr(total)
	job.Processed = IntPtr(processed)

	if schedID.Valid {
		job.Schedule = &domain.Schedule{
			ID:             schedID.String,
			Name:           schedName.String,
			Description:    schedDesc.String,
			CronExpression: schedCron.String,
			Type:           domain.JobType(schedType.String),
			Enabled:        schedEnabled.Bool,
			LastRun:        TimePtr(schedLastRun),
			CreatedAt:      schedCreated.Time.UTC(),
			UpdatedAt:      schedUpdated.Time.UTC(),
		}
	}
	return &job, nil
}
