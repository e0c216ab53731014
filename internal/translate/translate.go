// Package translate converts a note's ENML markup into uploadable blocks.
package translate

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/starford/laguz/internal/models"
)

// Rules are the per-run content rules applied during migration. Tag is
// consumed by the upload pipeline (forced onto every note); CondenseLines is
// consumed here.
type Rules struct {
	Tag           string `yaml:"tag"`
	CondenseLines bool   `yaml:"condense_lines"`
}

// Note converts the ENML content of note into blocks. An empty result is
// valid and means there is nothing to upload. Malformed ENML is an error;
// the caller decides what to do with the note.
func Note(note models.Note, rules Rules) ([]models.Block, error) {
	content := strings.TrimSpace(note.Content)
	if content == "" {
		return nil, nil
	}

	dec := xml.NewDecoder(strings.NewReader(content))
	// ENML carries HTML entities like &nbsp; that strict XML rejects.
	dec.Entity = xml.HTMLEntity
	dec.Strict = false

	var blocks []models.Block
	inRoot := false
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("translate: %q: %w", note.Title, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !inRoot {
			if start.Name.Local == "en-note" {
				inRoot = true
			}
			continue
		}

		b, err := element(dec, start)
		if err != nil {
			return nil, fmt.Errorf("translate: %q: %w", note.Title, err)
		}
		blocks = append(blocks, b...)
	}

	if !inRoot {
		return nil, fmt.Errorf("translate: %q: no en-note root", note.Title)
	}

	return condense(blocks, rules.CondenseLines), nil
}

// element converts one top-level ENML element into zero or more blocks.
func element(dec *xml.Decoder, start xml.StartElement) ([]models.Block, error) {
	switch start.Name.Local {
	case "div", "p":
		text, todo, checked, err := inlineText(dec, start)
		if err != nil {
			return nil, err
		}
		if todo {
			return []models.Block{{Type: models.BlockTodo, Text: text, Checked: checked}}, nil
		}
		return []models.Block{{Type: models.BlockParagraph, Text: text}}, nil

	case "h1", "h2", "h3":
		text, _, _, err := inlineText(dec, start)
		if err != nil {
			return nil, err
		}
		level := int(start.Name.Local[1] - '0')
		return []models.Block{{Type: models.BlockHeading, Text: text, Level: level}}, nil

	case "pre":
		text, _, _, err := inlineText(dec, start)
		if err != nil {
			return nil, err
		}
		return []models.Block{{Type: models.BlockCode, Text: text}}, nil

	case "hr":
		if err := dec.Skip(); err != nil {
			return nil, err
		}
		return []models.Block{{Type: models.BlockDivider}}, nil

	case "ul", "ol":
		return listItems(dec)

	default:
		// Unknown wrappers (tables, en-media, ...) contribute their plain
		// text as a paragraph; attachments are not migrated.
		text, _, _, err := inlineText(dec, start)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []models.Block{{Type: models.BlockParagraph, Text: text}}, nil
	}
}

// listItems converts <li> children into dash-prefixed paragraphs.
func listItems(dec *xml.Decoder) ([]models.Block, error) {
	var blocks []models.Block
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "li" {
				text, _, _, err := inlineText(dec, t)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, models.Block{Type: models.BlockParagraph, Text: "- " + text})
			} else {
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return blocks, nil
}

// inlineText flattens the subtree under start into plain text. <br> becomes a
// newline. A leading <en-todo> marks the block as a todo and carries its
// checked state.
func inlineText(dec *xml.Decoder, start xml.StartElement) (text string, todo, checked bool, err error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", false, false, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "br":
				sb.WriteString("\n")
			case "en-todo":
				if sb.Len() == 0 {
					todo = true
					for _, a := range t.Attr {
						if a.Name.Local == "checked" && a.Value == "true" {
							checked = true
						}
					}
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
	return strings.TrimSpace(sb.String()), todo, checked, nil
}

// condense trims leading and trailing empty paragraphs. When aggressive,
// every empty paragraph goes; otherwise runs of empties collapse to one.
func condense(blocks []models.Block, aggressive bool) []models.Block {
	empty := func(b models.Block) bool {
		return b.Type == models.BlockParagraph && b.Text == ""
	}

	var out []models.Block
	for _, b := range blocks {
		if empty(b) {
			if aggressive {
				continue
			}
			if len(out) == 0 || empty(out[len(out)-1]) {
				continue
			}
		}
		out = append(out, b)
	}
	for len(out) > 0 && empty(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}
