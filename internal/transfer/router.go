// Package transfer decides how an audio file travels to the
// transcription proxy: small files ride inside the request, large ones
// are staged in the blob store first.
package transfer

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/snarg/toolkit-engine/internal/audio"
	"github.com/snarg/toolkit-engine/internal/blobstore"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

type Path string

const (
	PathDirect Path = "direct"
	PathStaged Path = "staged"
)

// Decision is the routing verdict for one declared file. Grant is set
// only on the staged path.
type Decision struct {
	Path  Path
	Grant *blobstore.Grant
}

// Router applies the size threshold. Validation happens before any
// grant is issued, so a rejected file never leaves a blob behind. Keys
// it hands out are tracked so Stage only writes under a grant the
// router actually issued.
type Router struct {
	directMax int64
	store     blobstore.Store
	log       zerolog.Logger

	mu     sync.Mutex
	issued map[string]struct{}
}

func NewRouter(directMax int64, store blobstore.Store, log zerolog.Logger) *Router {
	return &Router{
		directMax: directMax,
		store:     store,
		log:       log.With().Str("component", "transfer").Logger(),
		issued:    make(map[string]struct{}),
	}
}

// Route inspects the declared name and size and picks a path.
func (r *Router) Route(name string, size int64) (Decision, error) {
	ext := audio.Ext(name)
	if !audio.Supported(ext) {
		return Decision{}, pipeline.Errorf(pipeline.CodeUnsupportedFormat,
			"unsupported file type: .%s (supported: %s)", ext, strings.Join(audio.Extensions(), ", "))
	}
	if size <= 0 {
		return Decision{}, pipeline.Errorf(pipeline.CodeInvalidInput, "file size must be positive")
	}
	if size > audio.MaxBytes {
		return Decision{}, pipeline.Errorf(pipeline.CodeFileTooLarge,
			"file too large (%.1fMB); maximum is 25MB", float64(size)/(1024*1024))
	}

	if size <= r.directMax {
		return Decision{Path: PathDirect}, nil
	}

	grant, err := blobstore.Authorize(name, size)
	if err != nil {
		return Decision{}, err
	}
	r.mu.Lock()
	r.issued[grant.Key] = struct{}{}
	r.mu.Unlock()
	r.log.Debug().Str("key", grant.Key).Int64("size", size).Msg("Staged path selected")
	return Decision{Path: PathStaged, Grant: &grant}, nil
}

// Stage writes uploaded bytes under a previously issued grant key. The
// cap is enforced again on the actual bytes, since the declared size was
// only a claim. Each grant is good for one successful write, so a blob
// can never be overwritten through a replayed key.
func (r *Router) Stage(ctx context.Context, key string, data []byte) error {
	ext := audio.Ext(key)
	if !audio.Supported(ext) {
		return pipeline.Errorf(pipeline.CodeUnsupportedFormat, "unsupported file type: .%s", ext)
	}
	r.mu.Lock()
	_, ok := r.issued[key]
	r.mu.Unlock()
	if !ok {
		return pipeline.Errorf(pipeline.CodeInvalidInput, "unknown or already used upload key")
	}
	if len(data) == 0 {
		return pipeline.Errorf(pipeline.CodeInvalidInput, "empty upload")
	}
	if int64(len(data)) > audio.MaxBytes {
		return pipeline.Errorf(pipeline.CodeFileTooLarge,
			"file too large (%.1fMB); maximum is 25MB", float64(len(data))/(1024*1024))
	}
	if err := r.store.Put(ctx, key, data, audio.ContentType(ext)); err != nil {
		return pipeline.Wrap(pipeline.CodeTranscriptionUnavailable, "stage upload", err)
	}
	r.mu.Lock()
	delete(r.issued, key)
	r.mu.Unlock()
	return nil
}
