// Package ledger persists the set of completion tokens for already-migrated
// notes, so an interrupted run can resume without re-uploading anything.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Ledger is a durable set of completion tokens. Adds are write-through: the
// token is appended to the backing file before Add returns, so a process
// killed mid-batch leaves the file reflecting exactly the completed notes.
//
// A single mutex serializes the in-memory set and the file append; Contains
// takes the same lock so readers always see a consistent snapshot.
type Ledger struct {
	path string // empty means in-memory only (no cross-run resume)

	mu   sync.Mutex
	done map[string]struct{}
}

// Open loads the ledger from path. A missing file is an empty ledger, not an
// error. The backing file may contain duplicate lines from resumed runs; the
// loaded set deduplicates them. An empty path yields an in-memory ledger.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path: path,
		done: make(map[string]struct{}),
	}
	if path == "" {
		return l, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		l.done[token] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ledger: read %s: %w", path, err)
	}
	return l, nil
}

// Contains reports whether token has been recorded as completed.
func (l *Ledger) Contains(token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.done[token]
	return ok
}

// Add records token as completed and appends it to the backing file before
// returning. Adding a token twice is harmless: the file tolerates duplicate
// lines and Open deduplicates on reload.
func (l *Ledger) Add(token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.done[token] = struct{}{}

	if l.path == "" {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: append open %s: %w", l.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, token); err != nil {
		return fmt.Errorf("ledger: append %s: %w", l.path, err)
	}
	return nil
}

// Len returns the number of distinct recorded tokens.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.done)
}
