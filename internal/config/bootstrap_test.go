package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven/mocks"
	"github.com/lexsearch/lexsearch-core/internal/core/services"
)

const seed = `
indexes:
  - name: de
    weight: 1.5
    filters:
      - field: path
        operator: startsWith
        value: /de
  - name: at
    filters:
      - field: language
        operator: equals
        value: DEU
schedules:
  - name: nightly-full
    description: Full reindex
    cron: "0 3 * * *"
    type: full
  - name: incremental
    cron: "*/15 * * * *"
    type: incremental
    enabled: false
`

func TestParseBootstrap(t *testing.T) {
	b, err := ParseBootstrap([]byte(seed))
	require.NoError(t, err)

	require.Len(t, b.Indexes, 2)
	assert.Equal(t, 1.5, b.Indexes[0].Weight)
	assert.Equal(t, domain.FilterStartsWith, b.Indexes[0].Filters[0].Operator)
	require.Len(t, b.Schedules, 2)
	assert.Nil(t, b.Schedules[0].Enabled)
	require.NotNil(t, b.Schedules[1].Enabled)
	assert.False(t, *b.Schedules[1].Enabled)
}

func TestParseBootstrap_Errors(t *testing.T) {
	_, err := ParseBootstrap([]byte("indexes:\n  - nmae: typo\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	b, err := ParseBootstrap(nil)
	require.NoError(t, err)
	assert.Empty(t, b.Indexes)
}

func TestLoadBootstrap_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	b, err := LoadBootstrap(path)
	require.NoError(t, err)
	assert.Len(t, b.Schedules, 2)

	_, err = LoadBootstrap(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBootstrapApply_Idempotent(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	indexStore := mocks.NewMockSearchIndexStore()
	indexSvc := services.NewIndexService(mocks.NewMockDocumentStore(), indexStore, mocks.NewMockSearchEngine(),
		services.IndexServiceConfig{Logger: logger})
	scheduleSvc := services.NewScheduleService(mocks.NewMockScheduleStore(), mocks.NewMockCronParser(time.Hour), logger)

	b, err := ParseBootstrap([]byte(seed))
	require.NoError(t, err)

	first, err := b.Apply(ctx, indexSvc, scheduleSvc, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Indexes)
	assert.Equal(t, 2, first.SchedulesCreated)
	assert.Equal(t, 0, first.SchedulesUpdated)

	second, err := b.Apply(ctx, indexSvc, scheduleSvc, logger)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SchedulesCreated)
	assert.Equal(t, 2, second.SchedulesUpdated)

	indexes, err := indexSvc.ListIndexes(ctx)
	require.NoError(t, err)
	assert.Len(t, indexes, 2)

	schedules, err := scheduleSvc.List(ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	for _, s := range schedules {
		if s.Name == "incremental" {
			assert.False(t, s.Enabled)
		} else {
			assert.True(t, s.Enabled)
		}
	}
}

func TestBootstrapApply_InvalidSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scheduleSvc := services.NewScheduleService(mocks.NewMockScheduleStore(), mocks.NewMockCronParser(time.Hour), logger)
	indexSvc := services.NewIndexService(mocks.NewMockDocumentStore(), mocks.NewMockSearchIndexStore(), mocks.NewMockSearchEngine(),
		services.IndexServiceConfig{Logger: logger})

	b := &Bootstrap{Schedules: []BootstrapSchedule{{Name: "bad", CronExpression: "* *", Type: domain.JobTypeFull}}}

	_, err := b.Apply(context.Background(), indexSvc, scheduleSvc, logger)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
