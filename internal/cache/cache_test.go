package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kyleking/asksql/internal/errors"
)

func newTestCache(t *testing.T) *FileCache {
	t.Helper()

	cache, err := NewFileCache(t.TempDir(), 10, time.Hour, time.Minute)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	t.Cleanup(func() { _ = cache.Close() })

	return cache
}

func TestFileCacheBasicOperations(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key := "schema:/data/shop.duckdb"
	data := []byte(`{"tables":[]}`)

	if err := cache.Set(ctx, key, data, time.Hour); err != nil {
		t.Fatalf("failed to set cache entry: %v", err)
	}

	retrieved, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get cache entry: %v", err)
	}

	if string(retrieved) != string(data) {
		t.Errorf("retrieved data doesn't match. expected: %s, got: %s", data, retrieved)
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("failed to delete cache entry: %v", err)
	}

	if _, err := cache.Get(ctx, key); !errors.IsType(err, errors.ErrTypeNotFound) {
		t.Errorf("expected not-found error for deleted key, got %v", err)
	}
}

func TestFileCacheTTL(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "ttl-test", []byte("payload"), 50*time.Millisecond); err != nil {
		t.Fatalf("failed to set cache entry: %v", err)
	}

	if _, err := cache.Get(ctx, "ttl-test"); err != nil {
		t.Fatalf("failed to get entry before expiration: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := cache.Get(ctx, "ttl-test"); !errors.IsType(err, errors.ErrTypeNotFound) {
		t.Errorf("expected not-found error for expired key, got %v", err)
	}
}

func TestFileCacheSizeLimit(t *testing.T) {
	cache, err := NewFileCache(t.TempDir(), 1, time.Hour, time.Minute)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()

	largeData := make([]byte, 512*1024)
	for i := range largeData {
		largeData[i] = byte(i % 256)
	}

	for i := range 3 {
		key := fmt.Sprintf("large-%d", i)
		if err := cache.Set(ctx, key, largeData, time.Hour); err != nil {
			t.Fatalf("failed to set entry %d: %v", i, err)
		}
	}

	size, err := cache.Size(ctx)
	if err != nil {
		t.Fatalf("failed to get cache size: %v", err)
	}

	maxSizeBytes := int64(1024 * 1024)
	if size > maxSizeBytes {
		t.Errorf("cache size %d exceeds limit %d", size, maxSizeBytes)
	}
}

func TestFileCacheStats(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	for i := range 5 {
		key := fmt.Sprintf("key-%d", i)
		if err := cache.Set(ctx, key, []byte(fmt.Sprintf("data-%d", i)), time.Hour); err != nil {
			t.Fatalf("failed to set entry %d: %v", i, err)
		}
	}

	for i := range 3 {
		if _, err := cache.Get(ctx, fmt.Sprintf("key-%d", i)); err != nil {
			t.Fatalf("failed to get entry %d: %v", i, err)
		}
	}

	for i := 10; i < 12; i++ {
		if _, err := cache.Get(ctx, fmt.Sprintf("key-%d", i)); err == nil {
			t.Errorf("expected miss for key-%d, got hit", i)
		}
	}

	stats, err := cache.GetStats(ctx)
	if err != nil {
		t.Fatalf("failed to get cache stats: %v", err)
	}

	if stats.TotalEntries != 5 {
		t.Errorf("expected 5 entries, got %d", stats.TotalEntries)
	}

	if stats.Hits != 3 {
		t.Errorf("expected 3 hits, got %d", stats.Hits)
	}

	if stats.Misses != 2 {
		t.Errorf("expected 2 misses, got %d", stats.Misses)
	}

	expectedHitRate := float64(3) / float64(5)
	if stats.HitRate != expectedHitRate {
		t.Errorf("expected hit rate %.2f, got %.2f", expectedHitRate, stats.HitRate)
	}
}

func TestFileCacheCleanup(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "short", []byte("data"), 50*time.Millisecond); err != nil {
		t.Fatalf("failed to set short TTL entry: %v", err)
	}

	if err := cache.Set(ctx, "long", []byte("data"), time.Hour); err != nil {
		t.Fatalf("failed to set long TTL entry: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := cache.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	if _, err := cache.Get(ctx, "short"); err == nil {
		t.Error("expected expired entry to be cleaned up")
	}

	if _, err := cache.Get(ctx, "long"); err != nil {
		t.Errorf("live entry removed by cleanup: %v", err)
	}
}

func TestFileCacheClear(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	for i := range 3 {
		if err := cache.Set(ctx, fmt.Sprintf("key-%d", i), []byte("data"), time.Hour); err != nil {
			t.Fatalf("failed to set entry: %v", err)
		}
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	stats, err := cache.GetStats(ctx)
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}

	if stats.TotalEntries != 0 {
		t.Errorf("expected empty cache after clear, got %d entries", stats.TotalEntries)
	}
}
