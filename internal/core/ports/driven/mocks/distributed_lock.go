package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock keeps named leases in memory. Hooks override the
// default behaviour when set.
type MockDistributedLock struct {
	mu     sync.Mutex
	leases map[string]time.Time

	// Acquisitions counts successful Acquire calls per lock name
	Acquisitions map[string]int

	AcquireFn func(name string, ttl time.Duration) (bool, error)
	ReleaseFn func(name string) error
	PingFn    func() error
}

// NewMockDistributedLock creates a lock with no leases held
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		leases:       make(map[string]time.Time),
		Acquisitions: make(map[string]int),
	}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if expiry, ok := m.leases[name]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	m.leases[name] = time.Now().Add(ttl)
	m.Acquisitions[name]++
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	if m.ReleaseFn != nil {
		return m.ReleaseFn(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.leases, name)
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.leases[name]
	if !ok || time.Now().After(expiry) {
		return fmt.Errorf("lock %s not held", name)
	}
	m.leases[name] = time.Now().Add(ttl)
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// IsHeld reports whether an unexpired lease exists
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.leases[name]
	return ok && time.Now().Before(expiry)
}

// SetLockHeld simulates another replica holding name for ttl
func (m *MockDistributedLock) SetLockHeld(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases[name] = time.Now().Add(ttl)
}
