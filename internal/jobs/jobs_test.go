package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestInlineRunsImmediately(t *testing.T) {
	var ran bool
	Inline{}.Dispatch("test", func(context.Context) error {
		ran = true
		return nil
	})
	if !ran {
		t.Error("expected inline job to run before Dispatch returns")
	}
}

func TestInlineSurvivesFailureAndPanic(t *testing.T) {
	Inline{}.Dispatch("fail", func(context.Context) error { return errors.New("boom") })
	Inline{}.Dispatch("panic", func(context.Context) error { panic("boom") })
}

func TestPoolRunsAndDrains(t *testing.T) {
	p := NewPool(2, 16)
	ctx, cancel := context.WithCancel(context.Background())

	var count atomic.Int32
	for range 10 {
		p.Dispatch("count", func(context.Context) error {
			count.Add(1)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop")
	}

	if got := count.Load(); got != 10 {
		t.Errorf("expected 10 jobs run, got %d", got)
	}

	// Dispatching after shutdown must not panic.
	p.Dispatch("late", func(context.Context) error { return nil })
}

func TestPoolDropsWhenFull(t *testing.T) {
	p := NewPool(1, 1)

	var count atomic.Int32
	inc := func(context.Context) error {
		count.Add(1)
		return nil
	}
	// No workers are running yet, so only one job fits.
	p.Dispatch("a", inc)
	p.Dispatch("b", inc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 job run, got %d", got)
	}
}
