package document

import (
	"strings"
	"testing"
)

func TestPreviewHTML_PureFunctionOfSource(t *testing.T) {
	d := New("# Hello\n\nSome **bold** text.")
	first, err := d.PreviewHTML()
	if err != nil {
		t.Fatalf("PreviewHTML: %v", err)
	}
	second, err := d.PreviewHTML()
	if err != nil {
		t.Fatalf("PreviewHTML: %v", err)
	}
	if first != second {
		t.Error("two renders of the same source differ")
	}
	if !strings.Contains(first, "<strong>bold</strong>") {
		t.Errorf("render missing bold span: %q", first)
	}

	d.SetSource("# Hello\n\nSome plain text.")
	third, err := d.PreviewHTML()
	if err != nil {
		t.Fatalf("PreviewHTML: %v", err)
	}
	if third == first {
		t.Error("render did not follow the source edit")
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"plain_heading", "# ToolKit: Hope (John 3)\n\nbody", "ToolKit: Hope (John 3)"},
		{"bold_heading", "# **ToolKit: Grace**\n", "ToolKit: Grace"},
		{"first_h1_wins", "## minor\n\n# Real Title\n\n# Second", "Real Title"},
		{"no_heading", "just a paragraph", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.source).Title(); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"spaces_to_dashes", "# ToolKit: New Hope\n", "ToolKit-New-Hope"},
		{"fallback", "no heading here", "toolkit"},
		{"punctuation_dropped", "# What? Why! (John 3:16)\n", "What-Why-John-316"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.source).Stem(); got != tt.want {
				t.Errorf("Stem() = %q, want %q", got, tt.want)
			}
		})
	}
}
