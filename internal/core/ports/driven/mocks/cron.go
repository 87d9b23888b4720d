package mocks

import (
	"strings"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

var _ driven.CronParser = (*MockCronParser)(nil)

// MockCronParser accepts any five-field expression and fires every Interval.
type MockCronParser struct {
	Interval time.Duration

	NextFn func(expr string, from time.Time) (time.Time, error)
}

// NewMockCronParser creates a parser firing every interval
func NewMockCronParser(interval time.Duration) *MockCronParser {
	return &MockCronParser{Interval: interval}
}

func (m *MockCronParser) Validate(expr string) error {
	if len(strings.Fields(expr)) != 5 {
		return domain.NewValidationError("cron_expression", "expected 5 fields")
	}
	return nil
}

func (m *MockCronParser) Next(expr string, from time.Time) (time.Time, error) {
	if m.NextFn != nil {
		return m.NextFn(expr, from)
	}
	if err := m.Validate(expr); err != nil {
		return time.Time{}, err
	}
	return from.Add(m.Interval), nil
}
