package cache

import (
	"testing"
	"time"
)

func TestGetWithinTTL(t *testing.T) {
	c, err := New[string, int](4, 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	c.Set("settings", 1)

	now = now.Add(4 * time.Minute)
	if v, ok := c.Get("settings"); !ok || v != 1 {
		t.Errorf("expected cached 1, got %d, %v", v, ok)
	}

	now = now.Add(time.Minute)
	if _, ok := c.Get("settings"); ok {
		t.Error("expected entry to expire at ttl")
	}
}

func TestInvalidateAndClear(t *testing.T) {
	c, _ := New[string, int](4, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a invalidated")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b kept")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("expected cache cleared")
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := New[int, int](2, time.Minute)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Get(1)
	c.Set(3, 3)

	if _, ok := c.Get(2); ok {
		t.Error("expected 2 evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("expected 1 kept")
	}
}

func TestNewRejectsBadSize(t *testing.T) {
	if _, err := New[string, int](0, time.Minute); err == nil {
		t.Error("expected error for size 0")
	}
}
