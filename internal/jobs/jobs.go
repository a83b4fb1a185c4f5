// Package jobs runs side effects that should not hold up an HTTP response.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Func is a unit of background work.
type Func func(ctx context.Context) error

// Dispatcher accepts named jobs for execution.
type Dispatcher interface {
	Dispatch(name string, fn Func)
}

// Inline runs every job synchronously in the caller's goroutine.
type Inline struct {
	Timeout time.Duration
}

// Dispatch runs fn before returning and logs its error.
func (d Inline) Dispatch(name string, fn Func) {
	ctx := context.Background()
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	run(ctx, name, fn)
}

type job struct {
	name string
	fn   Func
}

// Pool runs jobs on a fixed number of workers fed by a bounded queue.
type Pool struct {
	queue   chan job
	workers int
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// DefaultTimeout bounds a single job run on a Pool.
const DefaultTimeout = time.Minute

// NewPool creates a pool with the given number of workers and queue size.
// Jobs run only after Run is called.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		queue:   make(chan job, queueSize),
		workers: workers,
		timeout: DefaultTimeout,
	}
}

// Dispatch enqueues a job. When the queue is full or the pool is shutting
// down the job is dropped with a warning.
func (p *Pool) Dispatch(name string, fn Func) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		slog.Warn("job dropped, pool closed", "job", name)
		return
	}
	select {
	case p.queue <- job{name: name, fn: fn}:
	default:
		slog.Warn("job dropped, queue full", "job", name)
	}
}

// Run starts the workers and blocks until ctx is cancelled and every queued
// job has finished.
func (p *Pool) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range p.queue {
				jobCtx, cancel := context.WithTimeout(context.Background(), p.timeout)
				run(jobCtx, j.name, j.fn)
				cancel()
			}
		}()
	}

	<-ctx.Done()

	p.mu.Lock()
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	wg.Wait()
	slog.Info("job pool drained")
	return nil
}

func run(ctx context.Context, name string, fn Func) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job panicked", "job", name, "panic", r)
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		slog.Error("job failed", "job", name, "error", err, "duration", time.Since(start).Round(time.Millisecond))
	}
}
