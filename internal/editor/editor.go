// Package editor models the review surface for a toolkit document: the
// active view mode and the scroll coupling between the source and
// preview panes in split view.
package editor

import (
	"math"
	"sync"

	"github.com/snarg/toolkit-engine/internal/document"
)

type View string

const (
	ViewSource  View = "source"
	ViewPreview View = "preview"
	ViewSplit   View = "split"
)

type Pane int

const (
	PaneSource Pane = iota
	PanePreview
)

func (p Pane) other() Pane {
	if p == PaneSource {
		return PanePreview
	}
	return PaneSource
}

// Geometry is one pane's scroll state as reported by the client.
type Geometry struct {
	Offset       float64 `json:"offset"`        // current scroll offset
	ContentSize  float64 `json:"content_size"`  // total scrollable height
	ViewportSize float64 `json:"viewport_size"` // visible height
}

// Fraction maps the offset into [0, 1] over the pane's scrollable range.
// A pane with no overflow reports 0.
func (g Geometry) Fraction() float64 {
	span := g.ContentSize - g.ViewportSize
	if span <= 0 {
		return 0
	}
	f := g.Offset / span
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// OffsetFor converts a fraction back into this pane's coordinate space.
func (g Geometry) OffsetFor(fraction float64) float64 {
	span := g.ContentSize - g.ViewportSize
	if span <= 0 {
		return 0
	}
	return fraction * span
}

// Editor couples a document with its presentation state.
type Editor struct {
	mu        sync.Mutex
	doc       *document.Document
	view      View
	suspended [2]bool
}

func New(doc *document.Document) *Editor {
	return &Editor{doc: doc, view: ViewSplit}
}

func (e *Editor) Document() *document.Document { return e.doc }

func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// SetView switches the view mode and clears any pending suspension so a
// stale token cannot swallow the first scroll in the new mode.
func (e *Editor) SetView(v View) error {
	switch v {
	case ViewSource, ViewPreview, ViewSplit:
	default:
		return errInvalidView(v)
	}
	e.mu.Lock()
	e.view = v
	e.suspended = [2]bool{}
	e.mu.Unlock()
	return nil
}

// Scroll handles one scroll event from a pane. When the event should
// move the opposite pane it returns that pane's new offset and true.
// Programmatic moves issued here suspend exactly the next event from the
// moved pane, which breaks the echo loop without dropping the user's
// own follow-up scrolls. A follower that is already in place is not
// moved and not suspended: no move means no echo, and a token left
// armed would swallow that pane's next genuine scroll.
func (e *Editor) Scroll(from Pane, src, dst Geometry) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.suspended[from] {
		e.suspended[from] = false
		return 0, false
	}
	if e.view != ViewSplit {
		return 0, false
	}

	offset := dst.OffsetFor(src.Fraction())
	if math.Abs(offset-dst.Offset) < 0.5 {
		return 0, false
	}
	e.suspended[from.other()] = true
	return offset, true
}

type errInvalidView View

func (e errInvalidView) Error() string { return "unknown view mode: " + string(e) }
