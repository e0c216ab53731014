// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/laguz/internal/journal"
	"github.com/starford/laguz/internal/ledger"
	"github.com/starford/laguz/internal/notion"
	"github.com/starford/laguz/internal/progress"
	"github.com/starford/laguz/internal/source"
	"github.com/starford/laguz/internal/status"
	"github.com/starford/laguz/internal/uploader"
	"github.com/starford/laguz/internal/watch"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("source_path", cfg.Source.Path),
		slog.Int("parallelism", cfg.Upload.Parallelism),
		slog.String("mode", cfg.Notion.Mode),
		slog.Bool("dry_run", cfg.Notion.DryRun),
		slog.String("log_level", cfg.App.LogLevel.String()))

	src, err := source.NewFS(cfg.Source.Path)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}

	led, err := ledger.Open(cfg.Upload.DoneFile)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	if cfg.Upload.DoneFile == "" {
		logger.Warn("No done file configured, cross-run resume is disabled")
	} else {
		logger.Info("Ledger loaded",
			slog.String("path", cfg.Upload.DoneFile),
			slog.Int("completed", led.Len()))
	}

	var jnl *journal.Journal
	if cfg.Journal.Path != "" {
		jnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
		defer jnl.Close()

		runID, err := jnl.BeginRun(src.Root())
		if err != nil {
			return fmt.Errorf("begin journal run: %w", err)
		}
		logger.Info("Journal run started", slog.String("run_id", runID))
	}

	prog := progress.New(2 * time.Second)
	defer prog.Close()

	var dest uploader.Destination
	if cfg.Notion.DryRun {
		logger.Info("Dry run: notes will be parsed but not uploaded")
	} else {
		dest = notion.NewClient(cfg.Notion.BaseURL, cfg.Notion.Token)
	}

	up := uploader.New(uploader.Config{
		RootID:      cfg.Notion.RootID,
		Mode:        cfg.Notion.Mode,
		Parallelism: cfg.Upload.Parallelism,
		Rules:       cfg.Rules,
	}, dest, led, jnl, prog, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)

	var httpServer *http.Server
	if cfg.App.Status.Enabled() {
		httpServer = &http.Server{
			Addr:    cfg.App.Status.Address(),
			Handler: status.NewRouter(prog),
		}
		g.Go(func() error {
			logger.Info("Starting status server", slog.String("address", cfg.App.Status.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server error: %w", err)
			}
			return nil
		})
	}

	// Migration: notebooks processed sequentially, notes within a notebook
	// concurrently.
	g.Go(func() error {
		files, err := src.List()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			logger.Warn("No .enex files found", slog.String("path", src.Root()))
		}

		var failed int
		for _, f := range files {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			if err := up.UploadNotebook(gCtx, f); err != nil {
				failed++
				logger.Error("Notebook finished with failures",
					slog.String("path", f),
					slog.String("error", err.Error()))
			}
		}

		if cfg.Source.Watch {
			return watch.Watch(gCtx, src.Root(), logger, func(path string) {
				if err := up.UploadNotebook(gCtx, path); err != nil {
					logger.Error("Notebook finished with failures",
						slog.String("path", path),
						slog.String("error", err.Error()))
				}
			})
		}

		cancel()
		if failed > 0 {
			return fmt.Errorf("%d notebook(s) finished with upload failures", failed)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}

		if httpServer != nil {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelShutdown()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Status server shutdown error", slog.String("error", err.Error()))
			}
		}

		return nil
	})

	err = g.Wait()

	snap := prog.Snapshot()
	logger.Info("Migration finished",
		slog.Int64("notebooks", snap.Notebooks),
		slog.Int64("uploaded", snap.Uploaded),
		slog.Int64("skipped", snap.Skipped),
		slog.Int64("failed", snap.Failed))

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
