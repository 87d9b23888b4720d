package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driving"
)

// BootstrapSchedule is a schedule entry of the seed file
type BootstrapSchedule struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description"`
	CronExpression string         `yaml:"cron"`
	Type           domain.JobType `yaml:"type"`
	Enabled        *bool          `yaml:"enabled"`
}

// Bootstrap seeds index definitions and schedules at startup
type Bootstrap struct {
	Indexes   []driving.SaveIndexRequest `yaml:"indexes"`
	Schedules []BootstrapSchedule        `yaml:"schedules"`
}

// BootstrapResult counts what Apply changed
type BootstrapResult struct {
	Indexes          int
	SchedulesCreated int
	SchedulesUpdated int
}

// LoadBootstrap reads a seed file. Unknown keys are rejected.
func LoadBootstrap(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bootstrap file: %w", err)
	}
	return ParseBootstrap(data)
}

// ParseBootstrap decodes a seed document.
func ParseBootstrap(data []byte) (*Bootstrap, error) {
	var b Bootstrap
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: bootstrap: %v", domain.ErrInvalidInput, err)
	}
	return &b, nil
}

// Apply upserts every entry by name. Running it twice leaves the same state.
func (b *Bootstrap) Apply(ctx context.Context, indexes driving.IndexService, schedules driving.ScheduleService, logger *slog.Logger) (*BootstrapResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	result := &BootstrapResult{}

	for _, req := range b.Indexes {
		if _, err := indexes.SaveIndex(ctx, req); err != nil {
			return result, fmt.Errorf("bootstrap index %q: %w", req.Name, err)
		}
		result.Indexes++
		logger.Info("bootstrapped index", "index", req.Name)
	}

	existing, err := schedules.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list schedules: %w", err)
	}
	byName := make(map[string]*domain.Schedule, len(existing))
	for _, s := range existing {
		byName[s.Name] = s
	}

	for _, entry := range b.Schedules {
		if current, ok := byName[entry.Name]; ok {
			entry := entry
			if _, err := schedules.Update(ctx, current.ID, driving.UpdateScheduleRequest{
				Description:    &entry.Description,
				CronExpression: &entry.CronExpression,
				Type:           &entry.Type,
				Enabled:        entry.Enabled,
			}); err != nil {
				return result, fmt.Errorf("bootstrap schedule %q: %w", entry.Name, err)
			}
			result.SchedulesUpdated++
			logger.Info("bootstrapped schedule", "schedule", entry.Name, "action", "updated")
			continue
		}

		created, err := schedules.Create(ctx, driving.CreateScheduleRequest{
			Name:           entry.Name,
			Description:    entry.Description,
			CronExpression: entry.CronExpression,
			Type:           entry.Type,
			Enabled:        entry.Enabled,
		})
		if err != nil {
			return result, fmt.Errorf("bootstrap schedule %q: %w", entry.Name, err)
		}
		byName[created.Name] = created
		result.SchedulesCreated++
		logger.Info("bootstrapped schedule", "schedule", entry.Name, "action", "created")
	}
	return result, nil
}
