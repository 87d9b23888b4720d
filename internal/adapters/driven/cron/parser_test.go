package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

func TestParser_Next(t *testing.T) {
	p := NewParser(0)
	from := time.Date(2026, 3, 4, 10, 15, 30, 0, time.UTC) // a Wednesday

	tests := []struct {
		expr string
		want time.Time
	}{
		{"0 * * * *", time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)},
		{"*/30 * * * *", time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)},
		{"0 2 * * 0", time.Date(2026, 3, 8, 2, 0, 0, 0, time.UTC)},
		{"15 10 * * *", time.Date(2026, 3, 5, 10, 15, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := p.Next(tt.expr, from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_NextIsStrictlyAfter(t *testing.T) {
	p := NewParser(0)
	at := time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)

	got, err := p.Next("0 * * * *", at)
	require.NoError(t, err)
	assert.Equal(t, at.Add(time.Hour), got)
}

func TestParser_NextConvertsToUTC(t *testing.T) {
	p := NewParser(0)
	berlin := time.FixedZone("CET", 3600)
	from := time.Date(2026, 1, 10, 2, 30, 0, 0, berlin) // 01:30 UTC

	got, err := p.Next("0 2 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 10, 2, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestParser_Invalid(t *testing.T) {
	p := NewParser(0)

	for _, expr := range []string{"not a cron", "", "* * * *", "0 0 * * * *", "61 * * * *", "@daily"} {
		t.Run(expr, func(t *testing.T) {
			err := p.Validate(expr)
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			_, err = p.Next(expr, time.Now())
			assert.True(t, domain.IsValidationError(err))
		})
	}
}

func TestParser_NeverFires(t *testing.T) {
	p := NewParser(0)

	err := p.Validate("0 0 30 2 *")
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "never fires")

	_, err = p.Next("0 0 30 2 *", time.Now())
	assert.True(t, domain.IsValidationError(err))

	require.NoError(t, p.Validate("0 0 29 2 *"))
}

func TestParser_CachesValidExpressionsOnly(t *testing.T) {
	p := NewParser(2)

	require.NoError(t, p.Validate("0 * * * *"))
	_ = p.Validate("bogus")

	assert.Equal(t, 1, p.cache.Len())
	assert.True(t, p.cache.Contains("0 * * * *"))
}
