package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"perfect-recipe/internal/infrastructure/config"
	"perfect-recipe/internal/pkg/common"
)

func newTestManager(t *testing.T, maxSize int, ttl time.Duration) *CacheManager {
	t.Helper()
	m := NewManager(config.CacheConfig{
		Enabled:         true,
		MaxSize:         maxSize,
		TTL:             ttl,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(func() { m.Close() })
	return m
}

func TestCacheManagerSetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10, time.Minute)

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, common.ErrCacheMiss) {
		t.Fatalf("Get(missing) error = %v, want cache miss", err)
	}

	if err := m.Set(ctx, "shopping-list:1", `{"ingredients":["Water"]}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := m.Get(ctx, "shopping-list:1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != `{"ingredients":["Water"]}` {
		t.Errorf("Get() = %q", got)
	}

	m.Delete(ctx, "shopping-list:1")
	if _, err := m.Get(ctx, "shopping-list:1"); !errors.Is(err, common.ErrCacheMiss) {
		t.Errorf("Get() after Delete error = %v, want cache miss", err)
	}
}

func TestCacheManagerExpiry(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10, time.Millisecond)

	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, common.ErrCacheMiss) {
		t.Errorf("Get() on expired entry error = %v, want cache miss", err)
	}
}

func TestCacheManagerEvictsLeastUsed(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 2, time.Minute)

	_ = m.Set(ctx, "a", "1")
	_ = m.Set(ctx, "b", "2")
	if _, err := m.Get(ctx, "a"); err != nil {
		t.Fatalf("Get(a) error = %v", err)
	}
	if err := m.Set(ctx, "c", "3"); err != nil {
		t.Fatalf("Set(c) error = %v", err)
	}

	if _, err := m.Get(ctx, "b"); err == nil {
		t.Error("expected b to be evicted")
	}
	if _, err := m.Get(ctx, "a"); err != nil {
		t.Errorf("expected a to survive eviction, got %v", err)
	}
}

func TestNilManagerIsDisabled(t *testing.T) {
	var m *CacheManager
	ctx := context.Background()

	if _, err := m.Get(ctx, "k"); !errors.Is(err, common.ErrCacheDisabled) {
		t.Errorf("Get() on nil manager error = %v", err)
	}
	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Errorf("Set() on nil manager error = %v", err)
	}
	m.Delete(ctx, "k")
	if stats := m.GetStats(); stats["enabled"] != false {
		t.Errorf("GetStats() = %v", stats)
	}
}
