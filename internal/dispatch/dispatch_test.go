package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmit_BoundsConcurrency(t *testing.T) {
	const p = 2
	const jobs = 20

	d := New(p)
	ctx := context.Background()

	var inFlight, peak atomic.Int64
	for i := 0; i < jobs; i++ {
		err := d.Submit(ctx, func() {
			cur := inFlight.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if err := d.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if got := peak.Load(); got > p {
		t.Errorf("peak concurrency = %d, want <= %d", got, p)
	}
	if got := inFlight.Load(); got != 0 {
		t.Errorf("in-flight after drain = %d, want 0", got)
	}
}

func TestDrain_WaitsForAllWork(t *testing.T) {
	d := New(3)
	ctx := context.Background()

	var done atomic.Int64
	for i := 0; i < 10; i++ {
		if err := d.Submit(ctx, func() {
			time.Sleep(2 * time.Millisecond)
			done.Add(1)
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if err := d.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if got := done.Load(); got != 10 {
		t.Errorf("completed = %d, want 10", got)
	}
}

func TestFailingUnitReleasesSlot(t *testing.T) {
	d := New(1)
	ctx := context.Background()

	// A panicking unit must not wedge the pool: the slot release is deferred
	// and the dispatcher recovers the panic.
	if err := d.Submit(ctx, func() {
		panic("boom")
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ran := make(chan struct{})
	submitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := d.Submit(submitCtx, func() { close(ran) }); err != nil {
		t.Fatalf("submit after failure: %v", err)
	}
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("slot not released by failed unit")
	}
	_ = d.Drain(ctx)
}

func TestReuseAfterDrain(t *testing.T) {
	d := New(2)
	ctx := context.Background()

	var wg sync.WaitGroup
	for round := 0; round < 3; round++ {
		var count atomic.Int64
		for i := 0; i < 5; i++ {
			wg.Add(1)
			if err := d.Submit(ctx, func() {
				defer wg.Done()
				count.Add(1)
			}); err != nil {
				t.Fatalf("round %d submit: %v", round, err)
			}
		}
		if err := d.Drain(ctx); err != nil {
			t.Fatalf("round %d drain: %v", round, err)
		}
		if got := count.Load(); got != 5 {
			t.Errorf("round %d completed = %d, want 5", round, got)
		}
	}
	wg.Wait()
}

func TestNew_PanicsOnBadParallelism(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for parallelism 0")
		}
	}()
	New(0)
}
