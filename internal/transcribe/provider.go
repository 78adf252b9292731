package transcribe

import (
	"context"
	"io"
)

// Provider is the interface for speech-to-text backends.
type Provider interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (*Response, error)
	Name() string  // "groq"
	Model() string // model identifier for logs
}

// Response is the common transcription result from any provider.
type Response struct {
	Text     string
	Language string
	Duration float64   // audio duration in seconds
	Segments []Segment // nil if provider doesn't return segments
}

// Segment is a timed span of transcribed speech.
type Segment struct {
	Start float64 // seconds
	End   float64 // seconds
	Text  string
}
