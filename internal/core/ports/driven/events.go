package driven

import (
	"context"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// JobEventPublisher forwards job lifecycle events to other processes (Redis pub/sub)
type JobEventPublisher interface {
	// Publish sends one event; delivery is best-effort
	Publish(ctx context.Context, event domain.JobEvent) error

	// Close releases publisher resources
	Close() error
}
