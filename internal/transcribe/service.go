package transcribe

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/toolkit-engine/internal/audio"
	"github.com/snarg/toolkit-engine/internal/blobstore"
	"github.com/snarg/toolkit-engine/internal/metrics"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

// Service is the transcription proxy: it validates audio inputs, forwards
// them to the speech-to-text provider, normalizes the result into a
// paragraphed transcript, and cleans up staged blobs afterward.
type Service struct {
	provider Provider
	store    blobstore.Store
	cleaner  *blobstore.Cleaner
	log      zerolog.Logger
}

// NewService creates a transcription service. The cleaner may be nil when
// no staging backend is in play (tests, direct-only deployments).
func NewService(provider Provider, store blobstore.Store, cleaner *blobstore.Cleaner, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		store:    store,
		cleaner:  cleaner,
		log:      log.With().Str("component", "transcribe").Logger(),
	}
}

// Direct transcribes audio bytes that arrived in the request body.
// Validation mirrors the transfer router's checks: the proxy does not
// assume its caller already rejected bad input.
func (s *Service) Direct(ctx context.Context, filename string, data []byte) (string, error) {
	if err := validate(filename, int64(len(data))); err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("direct", "rejected").Inc()
		return "", err
	}
	transcript, err := s.run(ctx, "direct", filename, bytes.NewReader(data))
	return transcript, err
}

// Staged transcribes a blob previously staged by the transfer router.
// The blob is scheduled for deletion after the attempt regardless of the
// outcome; a failed deletion never fails the transcription.
func (s *Service) Staged(ctx context.Context, handle string) (string, error) {
	if err := validateHandle(handle); err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("staged", "rejected").Inc()
		return "", err
	}

	rc, err := s.store.Open(ctx, handle)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("staged", "error").Inc()
		return "", pipeline.Wrap(pipeline.CodeTranscriptionUnavailable,
			"staged audio could not be read", err)
	}

	data, readErr := io.ReadAll(rc)
	rc.Close()

	// The attempt consumes the blob either way.
	defer func() {
		if s.cleaner != nil {
			s.cleaner.Enqueue(handle)
		}
	}()

	if readErr != nil {
		metrics.TranscriptionsTotal.WithLabelValues("staged", "error").Inc()
		return "", pipeline.Wrap(pipeline.CodeTranscriptionUnavailable,
			"staged audio could not be read", readErr)
	}
	if err := validate(handle, int64(len(data))); err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("staged", "rejected").Inc()
		return "", err
	}

	return s.run(ctx, "staged", handle, bytes.NewReader(data))
}

// Provider exposes the configured backend, for health reporting.
func (s *Service) Provider() Provider { return s.provider }

func (s *Service) run(ctx context.Context, path, filename string, r io.Reader) (string, error) {
	start := time.Now()
	resp, err := s.provider.Transcribe(ctx, filename, r)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues(path, "error").Inc()
		return "", err
	}
	metrics.TranscriptionsTotal.WithLabelValues(path, "ok").Inc()
	metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())

	s.log.Info().
		Str("path", path).
		Str("provider", s.provider.Name()).
		Str("model", s.provider.Model()).
		Float64("audio_seconds", resp.Duration).
		Dur("took", time.Since(start)).
		Msg("transcription complete")

	return Paragraphs(resp.Text), nil
}

// validate re-checks the extension allow-list and size cap before any
// network call is made.
func validate(name string, size int64) error {
	ext := audio.Ext(name)
	if !audio.Supported(ext) {
		return pipeline.Errorf(pipeline.CodeUnsupportedFormat,
			"unsupported file type: .%s", ext)
	}
	if size > audio.MaxBytes {
		return pipeline.Errorf(pipeline.CodeFileTooLarge,
			"file too large (%.1fMB); maximum is 25MB", float64(size)/(1024*1024))
	}
	if size == 0 {
		return pipeline.Errorf(pipeline.CodeInvalidInput, "audio file is empty")
	}
	return nil
}

func validateHandle(handle string) error {
	if handle == "" {
		return pipeline.Errorf(pipeline.CodeInvalidInput, "blob handle is required")
	}
	if !audio.Supported(audio.Ext(handle)) {
		return pipeline.Errorf(pipeline.CodeUnsupportedFormat,
			"unsupported file type: .%s", audio.Ext(handle))
	}
	return nil
}
