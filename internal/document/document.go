// Package document holds the markdown toolkit being reviewed. The source
// text is the single authority; every preview and export is derived from
// it on demand and never written back.
package document

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type Document struct {
	mu     sync.RWMutex
	source string
}

func New(source string) *Document {
	return &Document{source: source}
}

func (d *Document) Source() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.source
}

// SetSource replaces the markdown wholesale. Edits always arrive as the
// full text, never as patches.
func (d *Document) SetSource(s string) {
	d.mu.Lock()
	d.source = s
	d.mu.Unlock()
}

// PreviewHTML renders the current source to HTML. The render reads only
// the source, so two calls without an intervening edit produce identical
// output.
func (d *Document) PreviewHTML() (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(d.Source()), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Title returns the text of the first level-1 heading, or "" when the
// document has none.
func (d *Document) Title() string {
	source := []byte(d.Source())
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			title = headingText(h, source)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(title)
}

// Stem derives a filesystem-safe name from the title for export
// filenames, falling back to "toolkit".
func (d *Document) Stem() string {
	title := d.Title()
	if title == "" {
		return "toolkit"
	}
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	stem := strings.Trim(b.String(), "-")
	if stem == "" {
		return "toolkit"
	}
	return stem
}

func headingText(h *ast.Heading, source []byte) string {
	var b strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		// emphasis and other inline wrappers keep the text one level down
		for g := c.FirstChild(); g != nil; g = g.NextSibling() {
			if t, ok := g.(*ast.Text); ok {
				b.Write(t.Segment.Value(source))
			}
		}
	}
	return b.String()
}
