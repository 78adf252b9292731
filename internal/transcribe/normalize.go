package transcribe

import "strings"

// Paragraphs normalizes raw transcription text into paragraphed form:
// lines are trimmed, empty lines dropped, and the remainder rejoined with
// blank-line separators. Order is preserved. If no non-empty lines exist,
// the raw text is returned unchanged.
func Paragraphs(raw string) string {
	lines := strings.Split(raw, "\n")
	paras := make([]string, 0, len(lines))
	for _, line := range lines {
		if p := strings.TrimSpace(line); p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) == 0 {
		return raw
	}
	return strings.Join(paras, "\n\n")
}
