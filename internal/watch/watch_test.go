package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

func TestWatch_PicksUpNewArchive(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var seen []string

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, dir, quietLogger(), func(path string) {
			mu.Lock()
			seen = append(seen, path)
			mu.Unlock()
		})
	}()

	// Give the watcher time to arm.
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(dir, "New.enex")
	if err := os.WriteFile(target, []byte("<en-export></en-export>"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-archives are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timeout waiting for archive pickup")
		case <-time.After(50 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != target {
		t.Errorf("seen = %v, want [%s]", seen, target)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}

func TestWatch_DebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	count := 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = Watch(ctx, dir, quietLogger(), func(string) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}()
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(dir, "Big.enex")
	// Several writes in quick succession simulate a slow export.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte("chunk"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(2 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("handler calls = %d, want 1 (debounced)", count)
	}
}
