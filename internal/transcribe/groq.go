package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/snarg/toolkit-engine/internal/pipeline"
)

// GroqClient calls Groq's OpenAI-compatible /audio/transcriptions endpoint.
// Implements the Provider interface.
type GroqClient struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

// groqError is the nested error shape Groq returns on failure.
type groqError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// groqResponse is the parsed verbose_json response.
type groqResponse struct {
	Text     string        `json:"text"`
	Language string        `json:"language"`
	Duration float64       `json:"duration"`
	Segments []groqSegment `json:"segments"`
}

type groqSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// NewGroqClient creates a Groq transcription client. The timeout is long:
// transcribing a full-length recording takes minutes, not seconds.
func NewGroqClient(url, apiKey, model string, timeout time.Duration) *GroqClient {
	return &GroqClient{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (gc *GroqClient) Name() string { return "groq" }

// Model returns the configured model identifier.
func (gc *GroqClient) Model() string { return gc.model }

// Transcribe sends audio to the transcription service and returns the
// result. The request always uses temperature 0 and verbose_json so the
// decoding is deterministic and segments come back structured.
func (gc *GroqClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	w.WriteField("model", gc.model)
	w.WriteField("temperature", "0")
	w.WriteField("response_format", "verbose_json")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gc.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+gc.apiKey)

	resp, err := gc.client.Do(req)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.CodeTranscriptionUnavailable,
			"transcription service unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.CodeTranscriptionUnavailable,
			"reading transcription response failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyGroqError(resp.StatusCode, body)
	}

	var result groqResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, pipeline.Wrap(pipeline.CodeTranscriptionService,
			"transcription response could not be decoded", err)
	}

	segments := make([]Segment, 0, len(result.Segments))
	for _, s := range result.Segments {
		segments = append(segments, Segment{Start: s.Start, End: s.End, Text: s.Text})
	}

	return &Response{
		Text:     result.Text,
		Language: result.Language,
		Duration: result.Duration,
		Segments: segments,
	}, nil
}

// classifyGroqError maps an upstream failure to the pipeline taxonomy.
// 413 means the payload exceeded the service cap; remediation advice stays
// format-generic since the upload may not be an MP3.
func classifyGroqError(status int, body []byte) error {
	if status == http.StatusRequestEntityTooLarge {
		return pipeline.Errorf(pipeline.CodeFileTooLarge,
			"file too large for the transcription service; reduce the audio bitrate or channel count and try again")
	}

	var ge groqError
	if err := json.Unmarshal(body, &ge); err == nil && ge.Error.Message != "" {
		return pipeline.Errorf(pipeline.CodeTranscriptionService,
			"transcription failed: %s", ge.Error.Message)
	}
	return pipeline.Errorf(pipeline.CodeTranscriptionService,
		"transcription failed (status %d)", status)
}
