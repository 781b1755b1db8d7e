package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](0)
	defer c.Stop()

	c.Set(ctx, "a", 42, time.Minute)

	got, ok := c.Get(ctx, "a")
	if !ok {
		t.Fatal("expected hit")
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_ExpiredEntryNeverServed(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](0)
	defer c.Stop()

	c.Set(ctx, "k", "v", 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expired entry must not be served")
	}
}

func TestCache_ZeroTTLStoresNothing(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](0)
	defer c.Stop()

	c.Set(ctx, "k", 1, 0)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("zero ttl must not store")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](0)
	defer c.Stop()

	c.Set(ctx, "a", 1, time.Minute)
	c.Set(ctx, "b", 2, time.Minute)

	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("deleted key still present")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}

func TestCache_JanitorReclaims(t *testing.T) {
	ctx := context.Background()
	c := New[int, int](10 * time.Millisecond)
	defer c.Stop()

	for i := 0; i < 10; i++ {
		c.Set(ctx, i, i, 5*time.Millisecond)
	}

	deadline := time.After(500 * time.Millisecond)
	for c.Len() > 0 {
		select {
		case <-deadline:
			t.Fatalf("janitor did not reclaim entries, %d left", c.Len())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
