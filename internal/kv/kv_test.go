package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/keramika/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(db.NewTestDB(t))
}

func TestSetAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Set(ctx, "products/1", []byte("a"), 0)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v != 1 {
		t.Errorf("expected version 1, got %d", v)
	}

	v, _ = s.Set(ctx, "products/1", []byte("b"), 0)
	if v != 2 {
		t.Errorf("expected version 2, got %d", v)
	}

	e, err := s.Get(ctx, "products/1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(e.Value) != "b" || e.Version != 2 {
		t.Errorf("unexpected entry %q v%d", e.Value, e.Version)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetIfVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SetIfVersion(ctx, "k", []byte("1"), 0, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.SetIfVersion(ctx, "k", []byte("x"), 0, 0); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict on second create, got %v", err)
	}
	if _, err := s.SetIfVersion(ctx, "k", []byte("2"), 1, 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.SetIfVersion(ctx, "k", []byte("stale"), 1, 0); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict on stale version, got %v", err)
	}

	e, _ := s.Get(ctx, "k")
	if string(e.Value) != "2" {
		t.Errorf("expected value 2, got %q", e.Value)
	}
}

func TestExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	s.Set(ctx, "contact:abc", []byte("pending"), time.Hour)

	if _, err := s.Get(ctx, "contact:abc"); err != nil {
		t.Fatalf("expected live key, got %v", err)
	}

	// KeepTTL must preserve the original deadline.
	now = now.Add(30 * time.Minute)
	s.Set(ctx, "contact:abc", []byte("confirmed"), KeepTTL)

	now = now.Add(31 * time.Minute)
	if _, err := s.Get(ctx, "contact:abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected expired key, got %v", err)
	}

	// An expired key counts as absent for conditional creates.
	if _, err := s.SetIfVersion(ctx, "contact:abc", []byte("new"), 0, time.Hour); err != nil {
		t.Errorf("expected create over expired key, got %v", err)
	}
}

func TestScanPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, "products/a", []byte("1"), 0)
	s.Set(ctx, "products/b", []byte("2"), 0)
	s.Set(ctx, "products_x/c", []byte("3"), 0)
	s.Set(ctx, "categories/a", []byte("4"), 0)

	entries, err := s.Scan(ctx, "products/")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != "products/a" || entries[1].Key != "products/b" {
		t.Errorf("unexpected keys %q %q", entries[0].Key, entries[1].Key)
	}

	// Underscore is a LIKE wildcard and must be matched literally.
	entries, _ = s.Scan(ctx, "products_")
	if len(entries) != 1 {
		t.Errorf("expected 1 entry for literal underscore, got %d", len(entries))
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, "k", []byte("v"), 0)
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting missing key: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	type rec struct {
		Name string `json:"name"`
	}
	v, err := s.SetJSON(ctx, "r", rec{Name: "vaza"}, 0)
	if err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var got rec
	gv, err := s.GetJSON(ctx, "r", &got)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.Name != "vaza" || gv != v {
		t.Errorf("unexpected %+v v%d", got, gv)
	}

	if _, err := s.SetJSONIfVersion(ctx, "r", rec{Name: "x"}, v+1, 0); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}
