package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "tenant_search/internal/adapters/redis"
	"tenant_search/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var got []domain.ReviewRecord
	ok, err := c.Get(ctx, "reviews:property:1", &got)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	in := []domain.ReviewRecord{{ReviewedItemID: 1, Score: 4}}
	if err := c.Set(ctx, "reviews:property:1", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("tenant_search:reviews:property:1") {
		t.Fatalf("expected prefixed key in redis")
	}

	ok, err = c.Get(ctx, "reviews:property:1", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].ReviewedItemID != 1 || got[0].Score != 4 {
		t.Fatalf("unexpected value: %+v", got)
	}

	if err := c.Del(ctx, "reviews:property:1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "reviews:property:1", &got); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_TTL(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var s string
	if ok, _ := c.Get(ctx, "k", &s); ok {
		t.Fatalf("expected key to expire")
	}
}
