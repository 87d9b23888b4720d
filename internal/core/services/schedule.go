package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driving"
)

// maxPreviewRuns bounds schedule previews
const maxPreviewRuns = 50

// Ensure scheduleService implements ScheduleService
var _ driving.ScheduleService = (*scheduleService)(nil)

// scheduleService implements the ScheduleService interface
type scheduleService struct {
	store  driven.ScheduleStore
	cron   driven.CronParser
	logger *slog.Logger
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(store driven.ScheduleStore, cron driven.CronParser, logger *slog.Logger) driving.ScheduleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &scheduleService{store: store, cron: cron, logger: logger}
}

// Create validates and stores a new schedule
func (s *scheduleService) Create(ctx context.Context, req driving.CreateScheduleRequest) (*domain.Schedule, error) {
	sched := domain.NewSchedule(req.Name, req.Description, req.CronExpression, req.Type)
	if req.Enabled != nil {
		sched.Enabled = *req.Enabled
	}
	if err := s.validate(sched); err != nil {
		return nil, err
	}

	if _, err := s.store.GetByName(ctx, sched.Name); err == nil {
		return nil, fmt.Errorf("schedule %q: %w", sched.Name, domain.ErrAlreadyExists)
	}
	if err := s.store.Save(ctx, sched); err != nil {
		return nil, err
	}
	s.logger.Info("schedule created", "schedule_id", sched.ID, "name", sched.Name, "cron", sched.CronExpression, "type", sched.Type)
	return s.withNextRun(sched), nil
}

// Update applies a partial update
func (s *scheduleService) Update(ctx context.Context, id string, req driving.UpdateScheduleRequest) (*domain.Schedule, error) {
	sched, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		sched.Name = *req.Name
	}
	if req.Description != nil {
		sched.Description = *req.Description
	}
	if req.CronExpression != nil {
		sched.CronExpression = strings.TrimSpace(*req.CronExpression)
	}
	if req.Type != nil {
		sched.Type = *req.Type
	}
	if req.Enabled != nil {
		sched.Enabled = *req.Enabled
	}
	if err := s.validate(sched); err != nil {
		return nil, err
	}
	if req.Name != nil {
		if other, err := s.store.GetByName(ctx, sched.Name); err == nil && other.ID != sched.ID {
			return nil, fmt.Errorf("schedule %q: %w", sched.Name, domain.ErrAlreadyExists)
		}
	}

	sched.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, sched); err != nil {
		return nil, err
	}
	return s.withNextRun(sched), nil
}

// Delete deletes a schedule
func (s *scheduleService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Get retrieves a schedule with its next run computed
func (s *scheduleService) Get(ctx context.Context, id string) (*domain.Schedule, error) {
	sched, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withNextRun(sched), nil
}

// List returns all schedules with their next runs computed
func (s *scheduleService) List(ctx context.Context) ([]*domain.Schedule, error) {
	schedules, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sched := range schedules {
		s.withNextRun(sched)
	}
	return schedules, nil
}

// Validate checks a cron expression
func (s *scheduleService) Validate(expr string) error {
	return s.cron.Validate(strings.TrimSpace(expr))
}

// NextRun returns the first activation after from
func (s *scheduleService) NextRun(expr string, from time.Time) (time.Time, error) {
	return s.cron.Next(strings.TrimSpace(expr), from)
}

// Preview returns the next n activations after from. Each call starts over from from.
func (s *scheduleService) Preview(expr string, from time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return []time.Time{}, nil
	}
	if n > maxPreviewRuns {
		n = maxPreviewRuns
	}
	expr = strings.TrimSpace(expr)
	runs := make([]time.Time, 0, n)
	at := from
	for i := 0; i < n; i++ {
		next, err := s.cron.Next(expr, at)
		if err != nil {
			return nil, err
		}
		runs = append(runs, next)
		at = next
	}
	return runs, nil
}

// Describe renders a cron expression as a sentence
func (s *scheduleService) Describe(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if err := s.cron.Validate(expr); err != nil {
		return "", err
	}
	return describeCron(expr)
}

func (s *scheduleService) validate(sched *domain.Schedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}
	return s.cron.Validate(sched.CronExpression)
}

// withNextRun derives NextRun from the expression and the current time
func (s *scheduleService) withNextRun(sched *domain.Schedule) *domain.Schedule {
	next, err := s.cron.Next(sched.CronExpression, time.Now())
	if err != nil {
		s.logger.Warn("schedule has invalid cron expression", "schedule_id", sched.ID, "cron", sched.CronExpression, "error", err)
		sched.NextRun = nil
		return sched
	}
	sched.NextRun = &next
	return sched
}

var (
	monthNames   = []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
	weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
)

// describeCron renders the five standard fields; the expression must already be valid
func describeCron(expr string) (string, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return "", domain.NewValidationError("cron_expression", "expected 5 fields")
	}
	minute, hour, dom, month, dow := fields[0], fields[1], fields[2], fields[3], fields[4]

	var b strings.Builder
	b.WriteString("Runs")

	switch {
	case minute == "*":
		b.WriteString(" every minute")
	case strings.HasPrefix(minute, "*/"):
		fmt.Fprintf(&b, " every %s minutes", strings.TrimPrefix(minute, "*/"))
	default:
		fmt.Fprintf(&b, " at minute %s", minute)
	}

	switch {
	case hour == "*":
	case strings.HasPrefix(hour, "*/"):
		fmt.Fprintf(&b, " every %s hours", strings.TrimPrefix(hour, "*/"))
	default:
		fmt.Fprintf(&b, " past hour %s", hour)
	}

	if dom != "*" {
		fmt.Fprintf(&b, " on day %s of the month", dom)
	}

	switch {
	case month == "*":
	case strings.HasPrefix(month, "*/"):
		fmt.Fprintf(&b, " every %s months", strings.TrimPrefix(month, "*/"))
	default:
		fmt.Fprintf(&b, " in %s", nameList(month, monthNames, 1))
	}

	switch {
	case dow == "*":
	case strings.HasPrefix(dow, "*/"):
		fmt.Fprintf(&b, " every %s days of the week", strings.TrimPrefix(dow, "*/"))
	default:
		fmt.Fprintf(&b, " on %s", nameList(dow, weekdayNames, 0))
	}

	return b.String(), nil
}

// nameList maps a list or range of numbers to names, leaving other tokens as written
func nameList(field string, names []string, base int) string {
	parts := strings.Split(field, ",")
	for i, p := range parts {
		if lo, hi, ok := strings.Cut(p, "-"); ok {
			parts[i] = name(lo, names, base) + " through " + name(hi, names, base)
			continue
		}
		parts[i] = name(p, names, base)
	}
	return strings.Join(parts, ", ")
}

func name(token string, names []string, base int) string {
	n, err := strconv.Atoi(token)
	if err != nil || n-base < 0 || n-base >= len(names) {
		return token
	}
	return names[n-base]
}
