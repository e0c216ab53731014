package progress

import (
	"sync/atomic"
	"time"
)

// Skip reasons reported by the pipeline.
const (
	ReasonAlreadyDone    = "already_done"
	ReasonEmpty          = "empty"
	ReasonTranslateError = "translate_error"
)

// Snapshot is the aggregate state of the current run.
type Snapshot struct {
	Notebooks int64 `json:"notebooks"`
	Total     int64 `json:"total"`
	Uploaded  int64 `json:"uploaded"`
	Skipped   int64 `json:"skipped"`
	Failed    int64 `json:"failed"`
}

// Progress aggregates per-note outcomes and, when a broker is attached,
// broadcasts them as SSE events. All methods are safe for concurrent use by
// upload workers; a nil *Progress is a no-op.
type Progress struct {
	notebooks atomic.Int64
	total     atomic.Int64
	uploaded  atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64

	broker *Broker
}

// New creates a Progress with an attached SSE broker.
func New(summaryThrottle time.Duration) *Progress {
	p := &Progress{}
	p.broker = NewBroker(summaryThrottle, p.Snapshot)
	return p
}

// Broker returns the SSE broker, or nil.
func (p *Progress) Broker() *Broker {
	if p == nil {
		return nil
	}
	return p.broker
}

// Close stops the attached broker.
func (p *Progress) Close() {
	if p == nil || p.broker == nil {
		return
	}
	p.broker.Close()
}

// Snapshot returns the current aggregate counters.
func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	return Snapshot{
		Notebooks: p.notebooks.Load(),
		Total:     p.total.Load(),
		Uploaded:  p.uploaded.Load(),
		Skipped:   p.skipped.Load(),
		Failed:    p.failed.Load(),
	}
}

func (p *Progress) publish(event Event) {
	if p.broker != nil {
		p.broker.Publish(event)
	}
}

// NotebookStarted records a new notebook of total notes.
func (p *Progress) NotebookStarted(title string, total int) {
	if p == nil {
		return
	}
	p.notebooks.Add(1)
	p.total.Add(int64(total))
	p.publish(Event{Type: "notebook.started", Data: map[string]any{
		"title": title,
		"total": total,
	}})
}

// NotebookCompleted records a fully drained notebook.
func (p *Progress) NotebookCompleted(title string) {
	if p == nil {
		return
	}
	p.publish(Event{Type: "notebook.completed", Data: map[string]any{
		"title": title,
	}})
}

// NoteUploaded records a note that reached the ledger.
func (p *Progress) NoteUploaded(title string, index, total int) {
	if p == nil {
		return
	}
	p.uploaded.Add(1)
	p.publish(Event{Type: "note.uploaded", Data: map[string]any{
		"title": title,
		"index": index,
		"total": total,
	}})
}

// NoteSkipped records an expected skip (dedup hit, empty, translate error).
func (p *Progress) NoteSkipped(title, reason string) {
	if p == nil {
		return
	}
	p.skipped.Add(1)
	p.publish(Event{Type: "note.skipped", Data: map[string]any{
		"title":  title,
		"reason": reason,
	}})
}

// NoteFailed records a note that exhausted its upload attempts.
func (p *Progress) NoteFailed(title string, attempts int) {
	if p == nil {
		return
	}
	p.failed.Add(1)
	p.publish(Event{Type: "note.failed", Data: map[string]any{
		"title":    title,
		"attempts": attempts,
	}})
}
