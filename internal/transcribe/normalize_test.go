package transcribe

import "testing"

func TestParagraphs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single_line", "hello world", "hello world"},
		{"multi_line", "first\nsecond\nthird", "first\n\nsecond\n\nthird"},
		{"blank_lines_dropped", "first\n\n\nsecond", "first\n\nsecond"},
		{"lines_trimmed", "  first  \n\t second \n", "first\n\nsecond"},
		{"empty_input_unchanged", "", ""},
		{"whitespace_only_unchanged", "   \n \t \n", "   \n \t \n"},
		{"preserves_order", "P1\nP2\nP3\nP4", "P1\n\nP2\n\nP3\n\nP4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Paragraphs(tt.in); got != tt.want {
				t.Errorf("Paragraphs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
