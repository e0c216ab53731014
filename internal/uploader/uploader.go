// Package uploader migrates ENEX notebooks into the destination workspace.
//
// One notebook at a time: its notes fan out to a bounded set of concurrent
// per-note pipelines, each running dedup check, rule application,
// translation, upload-with-retry, and ledger commit. The completion ledger
// makes repeated runs idempotent; a note's failure never aborts its
// siblings.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/dispatch"
	"github.com/starford/laguz/internal/enex"
	"github.com/starford/laguz/internal/journal"
	"github.com/starford/laguz/internal/ledger"
	"github.com/starford/laguz/internal/metrics"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/notion"
	"github.com/starford/laguz/internal/progress"
	"github.com/starford/laguz/internal/translate"
)

// maxUploadAttempts bounds how often one note's transient upload failure is
// retried before the note is given up on.
const maxUploadAttempts = 5

// Container resolution modes.
const (
	ModePage = "page"
	ModeDB   = "DB"
)

// Destination is the slice of the workspace client the uploader drives.
type Destination interface {
	ResolvePage(ctx context.Context, rootID, title string) (notion.Container, error)
	ResolveDatabase(ctx context.Context, rootID, title string) (notion.Container, error)
	UploadNote(ctx context.Context, container notion.Container, note models.Note, blocks []models.Block) error
}

// Outcome is the terminal state of one note's pipeline.
type Outcome string

const (
	OutcomeUploaded       Outcome = "uploaded"
	OutcomeAlreadyDone    Outcome = "already_done"
	OutcomeEmpty          Outcome = "empty"
	OutcomeTranslateError Outcome = "translate_error"
	OutcomeParsed         Outcome = "parsed" // dry run, nothing uploaded
	OutcomeFailed         Outcome = "failed"
)

// Config holds the migration knobs the uploader consumes.
type Config struct {
	RootID      string
	Mode        string // ModePage or ModeDB
	Parallelism int
	Rules       translate.Rules
}

// Uploader coordinates notebook migrations. A nil Destination means dry run:
// notes are parsed and translated but nothing is uploaded or committed.
type Uploader struct {
	cfg  Config
	dest Destination

	ledger   *ledger.Ledger
	disp     *dispatch.Dispatcher
	journal  *journal.Journal  // optional
	progress *progress.Progress // optional
	logger   *slog.Logger

	// swapped out in tests
	translateFn func(models.Note, translate.Rules) ([]models.Block, error)
}

// New creates an Uploader. journal and prog may be nil.
func New(cfg Config, dest Destination, led *ledger.Ledger, jnl *journal.Journal, prog *progress.Progress, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		cfg:         cfg,
		dest:        dest,
		ledger:      led,
		disp:        dispatch.New(cfg.Parallelism),
		journal:     jnl,
		progress:    prog,
		logger:      logger,
		translateFn: translate.Note,
	}
}

// UploadNotebook migrates one .enex archive. It returns only after every
// note of the notebook has reached a terminal state. Notes that exhausted
// their upload attempts are joined into the returned error; skips and
// translation failures are terminal but expected, and not errors.
func (u *Uploader) UploadNotebook(ctx context.Context, path string) error {
	title := enex.NotebookTitle(path)
	u.logger.Info("Processing notebook", slog.String("notebook", title))

	total, err := enex.CountNotes(path)
	if err != nil {
		return fmt.Errorf("uploader: count notes: %w", err)
	}

	container, err := u.resolveContainer(ctx, title)
	if err != nil {
		return fmt.Errorf("uploader: resolve container for %q: %w", title, err)
	}

	u.progress.NotebookStarted(title, total)

	r, err := enex.OpenReader(path)
	if err != nil {
		return fmt.Errorf("uploader: open notebook: %w", err)
	}
	defer r.Close()

	var mu sync.Mutex
	var failures []error

	idx := 0
	for {
		note, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Let in-flight notes finish before surfacing the read error.
			_ = u.disp.Drain(ctx)
			return fmt.Errorf("uploader: read notebook %q: %w", title, err)
		}
		idx++

		noteIdx := idx
		workerNote := note.Clone()
		if err := u.disp.Submit(ctx, func() {
			metrics.WorkerStarted()
			defer metrics.WorkerFinished()
			if err := u.processNote(ctx, container, title, workerNote, noteIdx, total); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
		}); err != nil {
			return fmt.Errorf("uploader: submit note: %w", err)
		}
	}

	if err := u.disp.Drain(ctx); err != nil {
		return fmt.Errorf("uploader: drain: %w", err)
	}
	u.progress.NotebookCompleted(title)

	mu.Lock()
	defer mu.Unlock()
	return errors.Join(failures...)
}

// resolveContainer picks the page- or database-style container for a
// notebook. Dry runs (no destination) get no container.
func (u *Uploader) resolveContainer(ctx context.Context, title string) (*notion.Container, error) {
	if u.dest == nil {
		return nil, nil
	}
	var (
		c   notion.Container
		err error
	)
	if u.cfg.Mode == ModeDB {
		c, err = u.dest.ResolveDatabase(ctx, u.cfg.RootID, title)
	} else {
		c, err = u.dest.ResolvePage(ctx, u.cfg.RootID, title)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// processNote runs the per-note pipeline to a terminal state. Only exhausted
// upload retries come back as an error; every other outcome is final here.
func (u *Uploader) processNote(ctx context.Context, container *notion.Container, notebook string, note models.Note, idx, total int) error {
	token := note.Hash()

	if u.ledger.Contains(token) {
		u.logger.Debug("Skipping note (already uploaded)", slog.String("title", note.Title))
		u.skip(token, notebook, note.Title, OutcomeAlreadyDone, progress.ReasonAlreadyDone)
		return nil
	}

	if tag := u.cfg.Rules.Tag; tag != "" && !note.HasTag(tag) {
		note.Tags = append(note.Tags, tag)
	}

	u.logger.Debug("Translating note", slog.String("title", note.Title))
	blocks, err := u.translateFn(note, u.cfg.Rules)
	if err != nil {
		u.logger.Error("Failed to translate note",
			slog.String("title", note.Title),
			slog.String("error", err.Error()))
		u.skip(token, notebook, note.Title, OutcomeTranslateError, progress.ReasonTranslateError)
		return nil
	}
	if len(blocks) == 0 {
		u.logger.Debug("Skipping note (no blocks)", slog.String("title", note.Title))
		u.skip(token, notebook, note.Title, OutcomeEmpty, progress.ReasonEmpty)
		return nil
	}

	if container == nil {
		u.record(journal.Entry{Hash: token, Notebook: notebook, Title: note.Title, Outcome: string(OutcomeParsed)})
		return nil
	}

	u.logger.Info("Uploading note",
		slog.Int("index", idx),
		slog.Int("total", total),
		slog.String("title", note.Title))

	start := time.Now()
	attempts, err := u.uploadWithRetry(ctx, *container, note, blocks)
	if err != nil {
		u.logger.Error("Giving up on note after upload failures",
			slog.String("title", note.Title),
			slog.Int("attempts", attempts),
			slog.String("error", err.Error()))
		metrics.RecordFailed()
		u.progress.NoteFailed(note.Title, attempts)
		u.record(journal.Entry{Hash: token, Notebook: notebook, Title: note.Title, Outcome: string(OutcomeFailed), Attempts: attempts})
		return fmt.Errorf("note %q: %w", note.Title, err)
	}
	metrics.ObserveUpload(time.Since(start).Seconds())

	if err := u.ledger.Add(token); err != nil {
		// The upload landed but is not recorded; a future run re-uploads it.
		return fmt.Errorf("note %q: record completion: %w", note.Title, err)
	}
	metrics.RecordUploaded()
	u.progress.NoteUploaded(note.Title, idx, total)
	u.record(journal.Entry{Hash: token, Notebook: notebook, Title: note.Title, Outcome: string(OutcomeUploaded), Attempts: attempts})
	return nil
}

// uploadWithRetry attempts the upload up to maxUploadAttempts times,
// retrying only the transient upload-failure error kind. It returns how many
// attempts were made.
func (u *Uploader) uploadWithRetry(ctx context.Context, container notion.Container, note models.Note, blocks []models.Block) (int, error) {
	var err error
	for attempt := 1; attempt <= maxUploadAttempts; attempt++ {
		err = u.dest.UploadNote(ctx, container, note, blocks)
		if err == nil {
			return attempt, nil
		}
		if !errors.Is(err, apperr.ErrUploadFailed) {
			return attempt, err
		}
		if attempt < maxUploadAttempts {
			metrics.RecordRetry()
			u.logger.Warn("Failed to upload note, retrying",
				slog.String("title", note.Title),
				slog.Int("attempt", attempt))
		}
	}
	return maxUploadAttempts, err
}

func (u *Uploader) skip(token, notebook, title string, outcome Outcome, reason string) {
	metrics.RecordSkipped(reason)
	u.progress.NoteSkipped(title, reason)
	u.record(journal.Entry{Hash: token, Notebook: notebook, Title: title, Outcome: string(outcome)})
}

func (u *Uploader) record(e journal.Entry) {
	if err := u.journal.Record(e); err != nil {
		u.logger.Warn("Journal write failed", slog.String("error", err.Error()))
	}
}
