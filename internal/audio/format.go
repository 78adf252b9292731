package audio

import (
	"path/filepath"
	"sort"
	"strings"
)

// MaxBytes is the upload hard cap. It is a fixed property of the
// downstream transcription service, enforced on every path.
const MaxBytes = 25 * 1024 * 1024

// allowed maps accepted audio file extensions to the content type bound at
// staging time. The content type is always derived from the destination
// extension, never from a client-declared header.
var allowed = map[string]string{
	"flac": "audio/flac",
	"mp3":  "audio/mpeg",
	"mp4":  "audio/mp4",
	"mpeg": "audio/mpeg",
	"mpga": "audio/mpeg",
	"m4a":  "audio/mp4",
	"ogg":  "audio/ogg",
	"opus": "audio/ogg",
	"wav":  "audio/wav",
	"webm": "audio/webm",
}

// Ext extracts the lowercase extension of a file name, without the dot.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Supported reports whether the extension is in the allow-list.
func Supported(ext string) bool {
	_, ok := allowed[strings.ToLower(ext)]
	return ok
}

// ContentType returns the content type bound to an extension, or "" when
// the extension is not allowed.
func ContentType(ext string) string {
	return allowed[strings.ToLower(ext)]
}

// Extensions returns the allow-list in sorted order, for error messages.
func Extensions() []string {
	exts := make([]string, 0, len(allowed))
	for e := range allowed {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return exts
}
