package progress

import (
	"strings"
	"testing"
	"time"
)

func TestSnapshotCounts(t *testing.T) {
	p := New(time.Second)
	defer p.Close()

	p.NotebookStarted("Journal", 3)
	p.NoteUploaded("a", 1, 3)
	p.NoteSkipped("b", ReasonAlreadyDone)
	p.NoteFailed("c", 5)

	s := p.Snapshot()
	if s.Notebooks != 1 || s.Total != 3 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.Uploaded != 1 || s.Skipped != 1 || s.Failed != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestNilProgressIsNoOp(t *testing.T) {
	var p *Progress
	p.NotebookStarted("x", 1)
	p.NoteUploaded("x", 1, 1)
	p.NoteSkipped("x", ReasonEmpty)
	p.NoteFailed("x", 5)
	p.NotebookCompleted("x")
	p.Close()
	if s := p.Snapshot(); s != (Snapshot{}) {
		t.Errorf("snapshot = %+v, want zero", s)
	}
}

func TestBroker_SubscribeUnsubscribe(t *testing.T) {
	p := New(time.Second)
	defer p.Close()
	b := p.Broker()

	if b.ClientCount() != 0 {
		t.Fatal("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatal("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatal("expected 0 clients after unsubscribe")
	}
}

func TestBroker_NoteEventDelivery(t *testing.T) {
	p := New(time.Second)
	defer p.Close()
	ch := p.Broker().Subscribe()
	defer p.Broker().Unsubscribe(ch)

	p.NoteUploaded("My Note", 2, 7)

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.uploaded") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"title":"My Note"`) {
			t.Errorf("missing title in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBroker_SummaryThrottled(t *testing.T) {
	p := New(500 * time.Millisecond)
	defer p.Close()
	ch := p.Broker().Subscribe()
	defer p.Broker().Unsubscribe(ch)

	// Two note events in quick succession: one summary, not two.
	p.NoteUploaded("a", 1, 2)
	p.NoteUploaded("b", 2, 2)

	time.Sleep(50 * time.Millisecond)
	summaries, notes := 0, 0
loop:
	for {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), "migration.summary") {
				summaries++
			} else {
				notes++
			}
		default:
			break loop
		}
	}
	if notes != 2 {
		t.Errorf("note events = %d, want 2", notes)
	}
	if summaries != 1 {
		t.Errorf("summary events = %d, want 1 (throttled)", summaries)
	}
}

func TestBroker_CloseClosesSubscribers(t *testing.T) {
	p := New(time.Second)
	ch := p.Broker().Subscribe()

	p.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for close")
	}

	// No-ops after close.
	p.NoteUploaded("x", 1, 1)
	if p.Broker().ClientCount() != 0 {
		t.Error("expected 0 clients after close")
	}
}
