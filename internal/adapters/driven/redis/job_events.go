package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.JobEventPublisher = (*JobEvents)(nil)

// DefaultJobChannel is the pub/sub channel carrying job lifecycle events
const DefaultJobChannel = "lexsearch:jobs"

// JobEvents publishes job lifecycle events on a Redis channel so that other
// processes (CLI watchers, dashboards) can follow indexing runs.
type JobEvents struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// NewJobEvents creates a publisher on channel, or DefaultJobChannel when empty.
func NewJobEvents(client redis.UniversalClient, channel string, logger *slog.Logger) *JobEvents {
	if channel == "" {
		channel = DefaultJobChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobEvents{client: client, channel: channel, logger: logger}
}

// Publish sends one event. Delivery is best-effort: events published while
// nobody listens are dropped by Redis.
func (p *JobEvents) Publish(ctx context.Context, event domain.JobEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode job event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish job event %s: %w", event.Type, err)
	}
	return nil
}

// Listen delivers events to fn until ctx is cancelled. Undecodable messages
// are logged and skipped.
func (p *JobEvents) Listen(ctx context.Context, fn func(domain.JobEvent)) error {
	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed before returning messages
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", p.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event domain.JobEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				p.logger.Warn("skipping malformed job event", "channel", p.channel, "error", err)
				continue
			}
			fn(event)
		}
	}
}

// Close is a no-op; the Redis client is owned by the caller.
func (p *JobEvents) Close() error {
	return nil
}
