package export

import (
	"regexp"

	"github.com/snarg/toolkit-engine/internal/document"
)

var (
	rePlainHeading = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	rePlainBold    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	rePlainItalic  = regexp.MustCompile(`\*(.*?)\*`)
	rePlainQuote   = regexp.MustCompile(`(?m)^>\s?`)
	rePlainRule    = regexp.MustCompile(`(?m)^-{3,}\s*$`)
	rePlainBlank   = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown removes formatting syntax and keeps the text. Each
// transform consumes its own markers, so running the result through
// again changes nothing.
func StripMarkdown(s string) string {
	s = rePlainHeading.ReplaceAllString(s, "")
	s = rePlainBold.ReplaceAllString(s, "$1")
	s = rePlainItalic.ReplaceAllString(s, "$1")
	s = rePlainQuote.ReplaceAllString(s, "")
	s = rePlainRule.ReplaceAllString(s, "")
	s = rePlainBlank.ReplaceAllString(s, "\n\n")
	return s
}

// Plain exports the document as unformatted text.
func Plain(d *document.Document) Artifact {
	return Artifact{
		Filename:    d.Stem() + ".txt",
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(StripMarkdown(d.Source())),
	}
}
