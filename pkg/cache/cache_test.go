package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type quote struct {
	Price float64 `json:"price"`
	Route string  `json:"route"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	if err := mc.Set(ctx, "q", quote{Price: 5400.5, Route: "DEL-BOM"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got quote
	if err := mc.Get(ctx, "q", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 5400.5 || got.Route != "DEL-BOM" {
		t.Fatalf("unexpected value %+v", got)
	}

	var missing quote
	if err := mc.Get(ctx, "nope", &missing); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()
	now := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	_ = mc.Set(ctx, "k", 1.5, time.Second)
	if ok, _ := mc.Exists(ctx, "k"); !ok {
		t.Fatalf("expected key to exist")
	}

	now = now.Add(2 * time.Second)
	var f float64
	if err := mc.Get(ctx, "k", &f); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired miss, got %v", err)
	}
	if mc.Len() != 0 {
		t.Fatalf("expired entry should be dropped on read")
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	defer mc.Close()

	_ = mc.Set(ctx, "a", "1", 0)
	_ = mc.Set(ctx, "b", "2", 0)
	var s string
	_ = mc.Get(ctx, "a", &s) // a becomes most recent
	_ = mc.Set(ctx, "c", "3", 0)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if ok, _ := mc.Exists(ctx, "a", "c"); !ok {
		t.Fatalf("expected a and c to remain")
	}
	if mc.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", mc.Len())
	}
}

func TestLayeredCachePromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache(WithMemoryCleanup(0))
	lc := NewLayeredCache(l2, WithLayeredMemorySize(10))
	defer lc.Close()

	_ = l2.Set(ctx, "q", quote{Price: 99}, time.Minute)
	var got quote
	if err := lc.Get(ctx, "q", &got); err != nil || got.Price != 99 {
		t.Fatalf("expected L2 hit, got %+v %v", got, err)
	}
	if lc.memCache.Len() != 1 {
		t.Fatalf("expected value promoted to L1")
	}

	_ = lc.Delete(ctx, "q")
	if ok, _ := lc.Exists(ctx, "q"); ok {
		t.Fatalf("expected delete from both layers")
	}
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	calls := 0
	load := func(context.Context) ([]int, error) {
		calls++
		return []int{5400, 6100}, nil
	}
	for i := 0; i < 3; i++ {
		v, hit, err := GetOrLoad(ctx, mc, "prices", time.Minute, load)
		if err != nil || len(v) != 2 {
			t.Fatalf("unexpected result %v %v", v, err)
		}
		if hit != (i > 0) {
			t.Fatalf("call %d: unexpected hit=%v", i, hit)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single load, got %d", calls)
	}

	boom := errors.New("boom")
	if _, _, err := GetOrLoad(ctx, nil, "x", time.Minute, func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestHashKeyStable(t *testing.T) {
	if HashKey("a,b") != HashKey("a,b") || HashKey("a,b") == HashKey("a,c") {
		t.Fatalf("hash must be stable and discriminating")
	}
	if GenerateKeyWithParams("compare", "DEL", "BOM") != "compare:DEL:BOM" {
		t.Fatalf("unexpected key")
	}
}
