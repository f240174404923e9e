package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(missing) err = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(ctx, "page", []byte("<html>"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "page")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "<html>" {
		t.Errorf("Get = %q, want %q", got, "<html>")
	}

	has, err := c.Has(ctx, "page")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !has {
		t.Error("Has(page) = false, want true")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "brief", []byte("x"), 50*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if _, err := c.Get(ctx, "brief"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired Get err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("deleted Get err = %v, want ErrCacheMiss", err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := c.Get(ctx, "b"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("cleared Get err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := c.Get(context.Background(), "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get after close err = %v, want ErrCacheClosed", err)
	}
	if err := c.Set(context.Background(), "k", []byte("v"), 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set after close err = %v, want ErrCacheClosed", err)
	}
}

func TestMemoryCacheStats(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "nope")

	stats := c.Stats()
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("Sets = %d, want 1", stats.Sets)
	}
}

func TestNewFallsBackToMemory(t *testing.T) {
	// No Redis URL configured selects the in-memory backend
	c := New("")
	defer c.Close()

	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("New(\"\") = %T, want *MemoryCache", c)
	}
}

func TestInvalidatePublic(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, KeyPublicPage, []byte("page"), 0)
	_ = c.Set(ctx, KeyManifest, []byte("manifest"), 0)
	_ = c.Set(ctx, "other", []byte("keep"), 0)

	InvalidatePublic(ctx, c)

	if _, err := c.Get(ctx, KeyPublicPage); !errors.Is(err, ErrCacheMiss) {
		t.Error("public page should be invalidated")
	}
	if _, err := c.Get(ctx, KeyManifest); !errors.Is(err, ErrCacheMiss) {
		t.Error("manifest should be invalidated")
	}
	if _, err := c.Get(ctx, "other"); err != nil {
		t.Errorf("unrelated key should survive: %v", err)
	}

	// nil cache is a no-op, not a panic
	InvalidatePublic(ctx, nil)
}
