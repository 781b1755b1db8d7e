package memcache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stxdex/price-engine/business/pricing/domain"
)

func TestPriceCache_EntryLifecycle(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)
	defer c.Close()

	if _, ok := c.Get(ctx, "SP1.alex"); ok {
		t.Fatal("empty cache must miss")
	}

	record := &domain.TokenPriceData{TokenID: "SP1.alex", USDPrice: decimal.NewFromInt(1)}
	c.Set(ctx, "SP1.alex", record, time.Minute)

	got, ok := c.Get(ctx, "SP1.alex")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got != record {
		t.Error("cache must return the stored record")
	}
}

func TestPriceCache_EntryExpires(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)
	defer c.Close()

	c.Set(ctx, "SP1.alex", &domain.TokenPriceData{TokenID: "SP1.alex"}, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "SP1.alex"); ok {
		t.Error("expired entry must miss")
	}
}

func TestPriceCache_BulkSnapshot(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)
	defer c.Close()

	if _, ok := c.GetBulk(ctx); ok {
		t.Fatal("empty cache must miss bulk")
	}

	snapshot := map[string]*domain.TokenPriceData{
		"SP1.alex": {TokenID: "SP1.alex"},
		"SP2.usda": {TokenID: "SP2.usda"},
	}
	c.SetBulk(ctx, snapshot, time.Minute)

	got, ok := c.GetBulk(ctx)
	if !ok || len(got) != 2 {
		t.Fatalf("expected bulk hit with 2 entries, got ok=%v len=%d", ok, len(got))
	}

	c.DeleteBulk(ctx)
	if _, ok := c.GetBulk(ctx); ok {
		t.Error("bulk snapshot must miss after delete")
	}
}
