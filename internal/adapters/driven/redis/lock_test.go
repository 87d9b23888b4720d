package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestLock_OwnerID_Unique(t *testing.T) {
	_, client := setupTestRedis(t)

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	if lock1.OwnerID() == "" {
		t.Fatal("expected non-empty owner ID")
	}
	if lock1.OwnerID() == lock2.OwnerID() {
		t.Errorf("expected unique owner IDs, got same: %s", lock1.OwnerID())
	}
}

func TestLock_Acquire(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)

	acquired, err := lock.Acquire(context.Background(), "index-scheduler", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("expected to acquire lock")
	}

	owner, err := mr.Get("lexsearch:lock:index-scheduler")
	if err != nil {
		t.Fatalf("lock key missing: %v", err)
	}
	if owner != lock.OwnerID() {
		t.Errorf("owner = %q, want %q", owner, lock.OwnerID())
	}
	if ttl := mr.TTL("lexsearch:lock:index-scheduler"); ttl != 10*time.Second {
		t.Errorf("ttl = %v, want 10s", ttl)
	}
}

func TestLock_Acquire_HeldByOther(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()
	lock1 := NewLock(client)
	lock2 := NewLock(client)

	if ok, _ := lock1.Acquire(ctx, "index-scheduler", 10*time.Second); !ok {
		t.Fatal("first acquire should succeed")
	}
	acquired, err := lock2.Acquire(ctx, "index-scheduler", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Error("second owner should not acquire a held lock")
	}
}

func TestLock_Acquire_ReentrantRefreshesTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	lock := NewLock(client)

	if ok, _ := lock.Acquire(ctx, "index-scheduler", 5*time.Second); !ok {
		t.Fatal("first acquire should succeed")
	}
	acquired, err := lock.Acquire(ctx, "index-scheduler", 30*time.Second)
	if err != nil || !acquired {
		t.Fatalf("re-acquire = %v, %v; want true, nil", acquired, err)
	}
	if ttl := mr.TTL("lexsearch:lock:index-scheduler"); ttl != 30*time.Second {
		t.Errorf("ttl = %v, want 30s", ttl)
	}
}

func TestLock_Acquire_AfterExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	lock1 := NewLock(client)
	lock2 := NewLock(client)

	lock1.Acquire(ctx, "index-scheduler", time.Second)
	mr.FastForward(2 * time.Second)

	if ok, err := lock2.Acquire(ctx, "index-scheduler", time.Second); err != nil || !ok {
		t.Errorf("acquire after expiry = %v, %v; want true, nil", ok, err)
	}
}

func TestLock_Release(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	lock := NewLock(client)

	lock.Acquire(ctx, "index-scheduler", 10*time.Second)
	if err := lock.Release(ctx, "index-scheduler"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists("lexsearch:lock:index-scheduler") {
		t.Error("lock key should be deleted")
	}

	// releasing again is a no-op
	if err := lock.Release(ctx, "index-scheduler"); err != nil {
		t.Errorf("second release: %v", err)
	}
}

func TestLock_Release_ByDifferentOwner(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	lock1 := NewLock(client)
	lock2 := NewLock(client)

	lock1.Acquire(ctx, "index-scheduler", 10*time.Second)
	if err := lock2.Release(ctx, "index-scheduler"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists("lexsearch:lock:index-scheduler") {
		t.Error("lock held by another owner must survive release")
	}
}

func TestLock_Extend(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	lock1 := NewLock(client)
	lock2 := NewLock(client)

	if err := lock1.Extend(ctx, "index-scheduler", time.Minute); err == nil {
		t.Error("extending an unheld lock should fail")
	}

	lock1.Acquire(ctx, "index-scheduler", 10*time.Second)
	if err := lock1.Extend(ctx, "index-scheduler", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := mr.TTL("lexsearch:lock:index-scheduler"); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}
	if err := lock2.Extend(ctx, "index-scheduler", time.Minute); err == nil {
		t.Error("extending another owner's lock should fail")
	}
}

func TestLock_Ping(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)

	if err := lock.Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	mr.Close()
	if err := lock.Ping(context.Background()); err == nil {
		t.Error("expected ping to fail after redis closed")
	}
}
