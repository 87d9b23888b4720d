package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

func TestJobEvents_PublishAndListen(t *testing.T) {
	mr, client := setupTestRedis(t)
	events := NewJobEvents(client, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.JobEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- events.Listen(ctx, func(e domain.JobEvent) { received <- e })
	}()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels(DefaultJobChannel)) == 1
	}, time.Second, 5*time.Millisecond)

	// a foreign payload on the channel is skipped
	mr.Publish(DefaultJobChannel, "not json")

	job := domain.NewIndexJob("", domain.JobTypeFull)
	event := domain.NewJobEvent(domain.JobEventProgress, job)
	event.Processed, event.Total, event.Progress = 50, 120, 41.7
	require.NoError(t, events.Publish(ctx, event))

	select {
	case got := <-received:
		assert.Equal(t, domain.JobEventProgress, got.Type)
		assert.Equal(t, job.ID, got.JobID)
		assert.Equal(t, domain.JobTypeFull, got.JobType)
		assert.Equal(t, 50, got.Processed)
		assert.Equal(t, 41.7, got.Progress)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

func TestJobEvents_PublishWithoutListeners(t *testing.T) {
	_, client := setupTestRedis(t)
	events := NewJobEvents(client, "jobs-test", nil)

	event := domain.JobEvent{Type: domain.JobEventStarted, JobID: "j1", At: time.Now()}
	assert.NoError(t, events.Publish(context.Background(), event))
	assert.NoError(t, events.Close())
}

func TestJobEvents_PublishFailsWhenRedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	events := NewJobEvents(client, "", nil)
	mr.Close()

	err := events.Publish(context.Background(), domain.JobEvent{Type: domain.JobEventStarted})
	assert.Error(t, err)
}
