package translate

import (
	"testing"

	"github.com/starford/laguz/internal/models"
)

func note(content string) models.Note {
	return models.Note{Title: "test", Content: content}
}

const enmlHeader = `<?xml version="1.0" encoding="UTF-8"?><!DOCTYPE en-note SYSTEM "http://xml.evernote.com/pub/enml2.dtd">`

func TestNote_Paragraphs(t *testing.T) {
	blocks, err := Note(note(enmlHeader+`<en-note><div>first</div><div>second</div></en-note>`), Rules{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(blocks), blocks)
	}
	if blocks[0].Type != models.BlockParagraph || blocks[0].Text != "first" {
		t.Errorf("block 0 = %+v", blocks[0])
	}
	if blocks[1].Text != "second" {
		t.Errorf("block 1 = %+v", blocks[1])
	}
}

func TestNote_HeadingCodeDivider(t *testing.T) {
	content := enmlHeader + `<en-note><h2>Head</h2><pre>x := 1</pre><hr/></en-note>`
	blocks, err := Note(note(content), Rules{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("len = %d, want 3: %v", len(blocks), blocks)
	}
	if blocks[0].Type != models.BlockHeading || blocks[0].Level != 2 || blocks[0].Text != "Head" {
		t.Errorf("heading = %+v", blocks[0])
	}
	if blocks[1].Type != models.BlockCode || blocks[1].Text != "x := 1" {
		t.Errorf("code = %+v", blocks[1])
	}
	if blocks[2].Type != models.BlockDivider {
		t.Errorf("divider = %+v", blocks[2])
	}
}

func TestNote_Todo(t *testing.T) {
	content := enmlHeader + `<en-note><div><en-todo checked="true"/>buy milk</div></en-note>`
	blocks, err := Note(note(content), Rules{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("len = %d, want 1", len(blocks))
	}
	if blocks[0].Type != models.BlockTodo || !blocks[0].Checked || blocks[0].Text != "buy milk" {
		t.Errorf("todo = %+v", blocks[0])
	}
}

func TestNote_List(t *testing.T) {
	content := enmlHeader + `<en-note><ul><li>one</li><li>two</li></ul></en-note>`
	blocks, err := Note(note(content), Rules{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 || blocks[0].Text != "- one" || blocks[1].Text != "- two" {
		t.Errorf("blocks = %v", blocks)
	}
}

func TestNote_EmptyContent(t *testing.T) {
	blocks, err := Note(note(""), Rules{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("expected no blocks, got %v", blocks)
	}
}

func TestNote_MissingRootIsError(t *testing.T) {
	if _, err := Note(note(`<div>orphan</div>`), Rules{}); err == nil {
		t.Error("expected error for content without en-note root")
	}
}

func TestNote_CondenseCollapsesEmptyRuns(t *testing.T) {
	content := enmlHeader + `<en-note><div>a</div><div></div><div></div><div>b</div><div></div></en-note>`

	blocks, err := Note(note(content), Rules{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Default: runs collapse to one, trailing empties trimmed.
	if len(blocks) != 3 {
		t.Fatalf("len = %d, want 3: %v", len(blocks), blocks)
	}
	if blocks[1].Text != "" {
		t.Errorf("middle block = %+v, want empty paragraph", blocks[1])
	}

	blocks, err = Note(note(content), Rules{CondenseLines: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 || blocks[0].Text != "a" || blocks[1].Text != "b" {
		t.Errorf("condensed blocks = %v", blocks)
	}
}

func TestNote_EntitiesTolerated(t *testing.T) {
	content := enmlHeader + `<en-note><div>a&nbsp;b</div></en-note>`
	blocks, err := Note(note(content), Rules{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("len = %d, want 1", len(blocks))
	}
}
