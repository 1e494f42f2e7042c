package cache

import (
	"fmt"
	"testing"
	"time"
)

type stepClock struct{ now time.Time }

func (s *stepClock) Now() time.Time { return s.now }

func TestTTLCache(t *testing.T) {
	clk := &stepClock{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
	c := NewTTLCache[string, int](clk)
	c.Set("a", 1, 0)
	c.Set("b", 2, time.Minute)

	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("expected b=2 before expiry, got %v %v", v, ok)
	}
	clk.now = clk.now.Add(time.Minute)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to expire")
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be deleted")
	}
}

func TestTTLCacheSweepsExpiredEntries(t *testing.T) {
	clk := &stepClock{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
	c := NewTTLCache[string, int](clk)
	for i := 0; i < sweepEvery-1; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, time.Second)
	}
	clk.now = clk.now.Add(time.Hour)
	c.Set("fresh", 1, 0)

	if n := c.Len(); n != 1 {
		t.Fatalf("expected only the fresh entry after sweep, got %d", n)
	}
}

func TestNoopCache(t *testing.T) {
	var c Cache[string, int] = NoopCache[string, int]{}
	c.Set("a", 1, time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("noop cache must always miss")
	}
}

func TestNilRedisCacheMisses(t *testing.T) {
	var c Cache[string, int] = NewRedisCache[int](nil, "settings:", nil)
	c.Set("a", 1, time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss without a client")
	}
}
