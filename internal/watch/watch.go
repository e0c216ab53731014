// Package watch keeps a migration running after the initial pass, picking up
// .enex archives dropped into the source directory.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a file must stay quiet after its last write event
// before it is considered fully exported and handed off. Exports can take a
// while to finish writing.
const settleDelay = 500 * time.Millisecond

// Watch starts an fsnotify watcher on root and calls handle for every .enex
// file that appears (or is rewritten) and settles, until ctx is cancelled.
// handle is invoked from the watch loop, so archives are migrated one at a
// time, matching the sequential notebook processing of the initial pass.
func Watch(ctx context.Context, root string, logger *slog.Logger, handle func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watch: started", slog.String("root", root))

	settled := make(chan string, 16)
	timers := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			for _, t := range timers {
				t.Stop()
			}
			logger.Info("watch: stopped")
			return nil

		case path := <-settled:
			delete(timers, path)
			logger.Info("watch: new archive", slog.String("path", path))
			handle(path)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// New directories join the watch list.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watch: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if !strings.EqualFold(filepath.Ext(ev.Name), ".enex") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			// Debounce per file: repeated writes keep pushing the timer out.
			if t, exists := timers[ev.Name]; exists {
				t.Reset(settleDelay)
			} else {
				name := ev.Name
				timers[name] = time.AfterFunc(settleDelay, func() {
					select {
					case settled <- name:
					case <-ctx.Done():
					}
				})
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
