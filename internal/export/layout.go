package export

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// BlockKind identifies one row of print output.
type BlockKind int

const (
	KindHeading BlockKind = iota
	KindParagraph
	KindListItem
	KindQuote
	KindRule
)

// Inline is a styled run of text within a block.
type Inline struct {
	Text   string
	Bold   bool
	Italic bool
}

// Block is one laid-out row of the print document. List items are
// pre-rendered as standalone rows with a literal marker so the print
// backend never depends on native list numbering.
type Block struct {
	Kind            BlockKind
	Level           int    // heading level, 1..6
	Marker          string // "1. " or the bullet glyph, list items only
	Indent          int    // nesting depth, list items only
	Inlines         []Inline
	PageBreakBefore bool
	KeepWithNext    bool
}

// Text flattens the block's runs, marker excluded.
func (b Block) Text() string {
	var sb strings.Builder
	for _, in := range b.Inlines {
		sb.WriteString(in.Text)
	}
	return sb.String()
}

// Plan is the normalized print layout for a document.
type Plan struct {
	Blocks []Block
}

const bulletGlyph = "• "

// BuildPlan parses the markdown and produces the print layout: every
// block left-aligned, list items flattened to literal-marker rows, a
// page break before the appendix heading, and headings pinned to the
// block that follows them.
func BuildPlan(source string) *Plan {
	src := []byte(source)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	p := &Plan{}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		p.appendNode(n, src, 0)
	}
	p.normalize()
	return p
}

func (p *Plan) appendNode(n ast.Node, src []byte, depth int) {
	switch v := n.(type) {
	case *ast.Heading:
		p.Blocks = append(p.Blocks, Block{
			Kind:    KindHeading,
			Level:   v.Level,
			Inlines: collectInlines(v, src, false, false),
		})
	case *ast.Paragraph, *ast.TextBlock:
		p.Blocks = append(p.Blocks, Block{
			Kind:    KindParagraph,
			Inlines: collectInlines(n, src, false, false),
		})
	case *ast.Blockquote:
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			p.Blocks = append(p.Blocks, Block{
				Kind:    KindQuote,
				Inlines: collectInlines(c, src, false, true),
			})
		}
	case *ast.ThematicBreak:
		p.Blocks = append(p.Blocks, Block{Kind: KindRule})
	case *ast.List:
		p.appendList(v, src, depth)
	}
}

func (p *Plan) appendList(l *ast.List, src []byte, depth int) {
	ordinal := l.Start
	if ordinal == 0 {
		ordinal = 1
	}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := bulletGlyph
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", ordinal)
			ordinal++
		}
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				p.appendList(nested, src, depth+1)
				continue
			}
			m := marker
			if !first {
				m = "" // continuation line of the same item
			}
			p.Blocks = append(p.Blocks, Block{
				Kind:    KindListItem,
				Marker:  m,
				Indent:  depth,
				Inlines: collectInlines(c, src, false, false),
			})
			first = false
		}
	}
}

// collectInlines walks a block's inline children, tracking the emphasis
// state so nested bold and italic spans come out as flat styled runs.
func collectInlines(n ast.Node, src []byte, bold, italic bool) []Inline {
	var runs []Inline
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			txt := string(v.Segment.Value(src))
			if txt == "" {
				continue
			}
			if v.SoftLineBreak() || v.HardLineBreak() {
				txt += " "
			}
			runs = append(runs, Inline{Text: txt, Bold: bold, Italic: italic})
		case *ast.Emphasis:
			b, i := bold, italic
			if v.Level >= 2 {
				b = true
			} else {
				i = true
			}
			runs = append(runs, collectInlines(v, src, b, i)...)
		case *ast.CodeSpan:
			runs = append(runs, Inline{Text: string(v.Text(src)), Bold: bold, Italic: italic})
		case *ast.Link:
			runs = append(runs, collectInlines(v, src, bold, italic)...)
		default:
			if c.HasChildren() {
				runs = append(runs, collectInlines(c, src, bold, italic)...)
			}
		}
	}
	return runs
}

// normalize applies the print rules that do not depend on the backend:
// the appendix starts on a fresh page, and a heading is never the last
// block on a page.
func (p *Plan) normalize() {
	for i := range p.Blocks {
		b := &p.Blocks[i]
		if b.Kind != KindHeading {
			continue
		}
		b.KeepWithNext = true
		if strings.Contains(strings.ToLower(b.Text()), "appendix") {
			b.PageBreakBefore = true
		}
	}
}
