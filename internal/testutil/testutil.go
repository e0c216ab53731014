// Package testutil provides shared test helpers for building ENEX fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const enmlTemplate = `<?xml version="1.0" encoding="UTF-8"?><!DOCTYPE en-note SYSTEM "http://xml.evernote.com/pub/enml2.dtd"><en-note><div>%s</div></en-note>`

// ENEXNote describes one note in a generated fixture archive.
type ENEXNote struct {
	Title   string
	Body    string   // plain text wrapped in a single-paragraph en-note; "" means empty content
	RawENML string   // overrides Body when set, for malformed-content cases
	Tags    []string
}

// WriteENEX writes an .enex archive named name into a temp dir and returns
// its path.
func WriteENEX(t *testing.T, name string, notes ...ENEXNote) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><en-export>`)
	for _, n := range notes {
		sb.WriteString("<note><title>")
		sb.WriteString(n.Title)
		sb.WriteString("</title><content><![CDATA[")
		switch {
		case n.RawENML != "":
			sb.WriteString(n.RawENML)
		case n.Body != "":
			sb.WriteString(fmt.Sprintf(enmlTemplate, n.Body))
		}
		sb.WriteString("]]></content>")
		for _, tag := range n.Tags {
			sb.WriteString("<tag>" + tag + "</tag>")
		}
		sb.WriteString("<created>20230101T000000Z</created><updated>20230102T000000Z</updated></note>")
	}
	sb.WriteString("</en-export>")

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
