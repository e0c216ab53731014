// Package enex reads notes out of Evernote ENEX export archives.
//
// An .enex file is an XML document with a flat list of <note> elements. The
// reader streams them one at a time so large exports never load fully into
// memory.
package enex

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/laguz/internal/models"
)

// enexTimeLayout is the timestamp format used by ENEX exports.
const enexTimeLayout = "20060102T150405Z"

type xmlNote struct {
	Title      string   `xml:"title"`
	Content    string   `xml:"content"`
	Created    string   `xml:"created"`
	Updated    string   `xml:"updated"`
	Tags       []string `xml:"tag"`
	Attributes struct {
		SourceURL string `xml:"source-url"`
	} `xml:"note-attributes"`
}

// Reader streams notes from one ENEX document, forward-only.
type Reader struct {
	dec    *xml.Decoder
	closer io.Closer
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r)}
}

// OpenReader opens the ENEX file at path for streaming. The caller must
// Close the reader when done.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("enex: open %s: %w", path, err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// Next returns the next note in the document, or io.EOF when the document is
// exhausted.
func (r *Reader) Next() (models.Note, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if err == io.EOF {
				return models.Note{}, io.EOF
			}
			return models.Note{}, fmt.Errorf("enex: read token: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "note" {
			continue
		}

		var raw xmlNote
		if err := r.dec.DecodeElement(&raw, &start); err != nil {
			return models.Note{}, fmt.Errorf("enex: decode note: %w", err)
		}
		return toNote(raw), nil
	}
}

// Close closes the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// CountNotes streams the file once and returns how many notes it holds.
// Used for progress totals before the upload pass starts.
func CountNotes(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("enex: open %s: %w", path, err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	count := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return count, nil
			}
			return 0, fmt.Errorf("enex: count %s: %w", path, err)
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "note" {
			count++
			if err := dec.Skip(); err != nil {
				return 0, fmt.Errorf("enex: count %s: %w", path, err)
			}
		}
	}
}

// NotebookTitle derives the destination notebook name from the archive
// file name ("Journal.enex" -> "Journal").
func NotebookTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func toNote(raw xmlNote) models.Note {
	n := models.Note{
		Title:   strings.TrimSpace(raw.Title),
		Content: raw.Content,
		Tags:    raw.Tags,
		URL:     raw.Attributes.SourceURL,
	}
	// Timestamps are best-effort; a malformed one leaves the zero time.
	if t, err := time.Parse(enexTimeLayout, raw.Created); err == nil {
		n.Created = t
	}
	if t, err := time.Parse(enexTimeLayout, raw.Updated); err == nil {
		n.Updated = t
	}
	return n
}
