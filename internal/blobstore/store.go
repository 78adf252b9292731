package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/snarg/toolkit-engine/internal/audio"
	"github.com/snarg/toolkit-engine/internal/config"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

// Store abstracts the staging backend for audio uploads that exceed the
// direct-transfer threshold. Blobs are short-lived: created by the transfer
// router, deleted after one transcription attempt.
type Store interface {
	// Put writes blob data under the authorized key.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Open returns a reader for a staged blob.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a staged blob by key.
	Delete(ctx context.Context, key string) error

	// Exists checks whether a blob is present.
	Exists(ctx context.Context, key string) bool

	// Type returns "local" or "s3".
	Type() string
}

// Grant is a write authorization for one staged blob. The content type is
// bound when the grant is issued, derived from the destination extension
// rather than anything the client declared.
type Grant struct {
	Key         string
	ContentType string
	MaxBytes    int64
}

// Authorize validates a staging request against the extension allow-list
// and size cap, and issues a grant with a fresh opaque key. This re-checks
// what the transfer router already checked: the store trusts nobody.
func Authorize(name string, size int64) (Grant, error) {
	ext := audio.Ext(name)
	if !audio.Supported(ext) {
		return Grant{}, pipeline.Errorf(pipeline.CodeUnsupportedFormat,
			"unsupported file type: .%s", ext)
	}
	if size > audio.MaxBytes {
		return Grant{}, pipeline.Errorf(pipeline.CodeFileTooLarge,
			"file too large (%.1fMB); maximum is 25MB", float64(size)/(1024*1024))
	}
	return Grant{
		Key:         uuid.NewString() + "." + ext,
		ContentType: audio.ContentType(ext),
		MaxBytes:    audio.MaxBytes,
	}, nil
}

// New creates a Store based on config: S3 when a bucket is configured,
// local directory otherwise. S3 credentials and bucket access are verified
// at startup.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	if !cfg.S3.Enabled() {
		return NewLocalStore(cfg.BlobDir), nil
	}

	s3store, err := NewS3Store(cfg.S3, log)
	if err != nil {
		return nil, fmt.Errorf("s3 init: %w", err)
	}
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, fmt.Errorf("s3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.S3.Bucket, cfg.S3.Endpoint, err)
	}
	log.Info().Str("bucket", cfg.S3.Bucket).Str("endpoint", cfg.S3.Endpoint).Msg("s3 connection verified")
	return s3store, nil
}
