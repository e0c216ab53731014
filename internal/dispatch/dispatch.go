// Package dispatch bounds how many per-note workers run at once.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// Dispatcher admits at most P units of work concurrently. Submit blocks the
// caller while the pool is full; Drain blocks until every admitted unit has
// finished. Only the count of running units is bounded; completion order is
// whatever the scheduler gives.
type Dispatcher struct {
	parallelism int64
	sem         *semaphore.Weighted
}

// New creates a dispatcher with parallelism p. Panics if p < 1; parallelism
// is validated at config load, so a bad value here is a programming error.
func New(p int) *Dispatcher {
	if p < 1 {
		panic(fmt.Sprintf("dispatch: parallelism must be >= 1, got %d", p))
	}
	return &Dispatcher{
		parallelism: int64(p),
		sem:         semaphore.NewWeighted(int64(p)),
	}
}

// Submit blocks until a worker slot is free, then runs work on its own
// goroutine and returns. The slot is released on every exit path of work, so
// a failing unit never starves the pool.
func (d *Dispatcher) Submit(ctx context.Context, work func()) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("dispatch: acquire slot: %w", err)
	}
	go func() {
		defer d.sem.Release(1)
		defer func() {
			// A unit must never take the process down or starve the pool.
			if r := recover(); r != nil {
				slog.Error("dispatch: worker panic", slog.Any("panic", r))
			}
		}()
		work()
	}()
	return nil
}

// Drain blocks until all previously submitted units have finished. The
// dispatcher is ready for reuse afterwards.
func (d *Dispatcher) Drain(ctx context.Context) error {
	if err := d.sem.Acquire(ctx, d.parallelism); err != nil {
		return fmt.Errorf("dispatch: drain: %w", err)
	}
	d.sem.Release(d.parallelism)
	return nil
}
