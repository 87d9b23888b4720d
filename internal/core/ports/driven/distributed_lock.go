package driven

import (
	"context"
	"time"
)

// DistributedLock guards the scheduler tick so that replicas sharing one
// database do not evaluate the same schedules at the same time.
// It is a tick guard only; the single execution slot stays process-local.
type DistributedLock interface {
	// Acquire attempts to take a named lock with the given TTL.
	// Returns false without error when another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Extend extends the TTL of a currently held lock.
	// Not every backend supports this (PostgreSQL advisory locks do not expire).
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
