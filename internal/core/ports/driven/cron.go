package driven

import "time"

// CronParser evaluates standard five-field cron expressions
type CronParser interface {
	// Validate returns a ValidationError when the expression cannot be parsed
	Validate(expr string) error

	// Next returns the first activation strictly after from
	Next(expr string, from time.Time) (time.Time, error)
}
