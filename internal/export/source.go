// Package export turns a reviewed toolkit document into downloadable
// artifacts: the raw markdown, a plain-text rendition, and a print-style
// paginated document.
package export

import "github.com/snarg/toolkit-engine/internal/document"

// Artifact is a finished export ready to hand to the client.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Source exports the markdown byte for byte. Whatever the user sees in
// the source pane is exactly what they download.
func Source(d *document.Document) Artifact {
	return Artifact{
		Filename:    d.Stem() + ".md",
		ContentType: "text/markdown; charset=utf-8",
		Data:        []byte(d.Source()),
	}
}
