package cron

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	robfig "github.com/robfig/cron/v3"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CronParser = (*Parser)(nil)

// DefaultCacheSize is the number of parsed expressions kept in memory.
// The worker evaluates every enabled schedule on each tick.
const DefaultCacheSize = 256

// field is the schedule field reported on validation errors
const field = "cron_expression"

// standard accepts exactly five fields: minute hour day-of-month month day-of-week
var standard = robfig.NewParser(robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow)

// Parser evaluates five-field cron expressions in UTC.
type Parser struct {
	cache *lru.Cache[string, robfig.Schedule]
}

// NewParser creates a parser caching up to cacheSize parsed expressions.
func NewParser(cacheSize int) *Parser {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, robfig.Schedule](cacheSize)
	return &Parser{cache: cache}
}

// Validate returns a ValidationError when the expression cannot be parsed
// or has no upcoming activation.
func (p *Parser) Validate(expr string) error {
	_, err := p.Next(expr, time.Now())
	return err
}

// Next returns the first activation strictly after from, in UTC.
func (p *Parser) Next(expr string, from time.Time) (time.Time, error) {
	sched, err := p.parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	next := sched.Next(from.UTC())
	if next.IsZero() {
		// robfig gives up after five years of candidates, e.g. "0 0 30 2 *"
		return time.Time{}, domain.NewValidationError(field, "expression never fires")
	}
	return next, nil
}

func (p *Parser) parse(expr string) (robfig.Schedule, error) {
	if sched, ok := p.cache.Get(expr); ok {
		return sched, nil
	}
	sched, err := standard.Parse(expr)
	if err != nil {
		return nil, domain.NewValidationError(field, err.Error())
	}
	p.cache.Add(expr, sched)
	return sched, nil
}
