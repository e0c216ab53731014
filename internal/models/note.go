// Package models defines the domain types for Laguz.
package models

import (
	"slices"
	"time"

	"github.com/starford/laguz/internal/checksum"
)

// Note represents one record from an ENEX export archive.
type Note struct {
	Title   string    `json:"title"`
	Content string    `json:"-"` // raw ENML markup
	Tags    []string  `json:"tags,omitempty"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	URL     string    `json:"url,omitempty"`
}

// Hash returns the note's completion token: a stable digest of title and
// content. Identical content always yields the same token, which is what
// makes cross-run dedup work.
func (n *Note) Hash() string {
	return checksum.Sum([]byte(n.Title + "\n" + n.Content))
}

// Clone returns a deep copy. Every upload worker mutates only its own copy
// (tag injection), so in-flight notes never alias each other's tag slices.
func (n *Note) Clone() Note {
	c := *n
	c.Tags = slices.Clone(n.Tags)
	return c
}

// HasTag reports whether tag is already present on the note.
func (n *Note) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// Block types produced by translation.
const (
	BlockParagraph = "paragraph"
	BlockHeading   = "heading"
	BlockTodo      = "todo"
	BlockCode      = "code"
	BlockDivider   = "divider"
)

// Block is one translated, uploadable unit of note content.
type Block struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Level   int    `json:"level,omitempty"`   // headings only
	Checked bool   `json:"checked,omitempty"` // todos only
}
