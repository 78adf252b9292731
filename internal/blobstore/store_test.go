package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/snarg/toolkit-engine/internal/metrics"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

// ── Authorize ────────────────────────────────────────────────────────

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantCode pipeline.Code
		wantType string
	}{
		{"mp3_ok", "sermon.mp3", 10 << 20, "", "audio/mpeg"},
		{"wav_ok", "talk.WAV", 22 << 20, "", "audio/wav"},
		{"m4a_ok", "a.m4a", 100, "", "audio/mp4"},
		{"pdf_rejected", "notes.pdf", 100, pipeline.CodeUnsupportedFormat, ""},
		{"no_extension", "audio", 100, pipeline.CodeUnsupportedFormat, ""},
		{"over_cap", "big.mp3", 26 << 20, pipeline.CodeFileTooLarge, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grant, err := Authorize(tt.filename, tt.size)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("Authorize(%q) succeeded, want %s", tt.filename, tt.wantCode)
				}
				if code := pipeline.CodeOf(err); code != tt.wantCode {
					t.Errorf("code = %s, want %s", code, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authorize: %v", err)
			}
			if grant.ContentType != tt.wantType {
				t.Errorf("ContentType = %q, want %q", grant.ContentType, tt.wantType)
			}
			if grant.Key == "" {
				t.Error("grant key is empty")
			}
			if !strings.HasSuffix(grant.Key, "."+strings.ToLower(tt.filename[strings.LastIndex(tt.filename, ".")+1:])) {
				t.Errorf("key %q does not carry the source extension", grant.Key)
			}
		})
	}
}

func TestAuthorize_UniqueKeys(t *testing.T) {
	a, _ := Authorize("x.mp3", 1)
	b, _ := Authorize("x.mp3", 1)
	if a.Key == b.Key {
		t.Errorf("two grants share key %q", a.Key)
	}
}

// ── LocalStore ───────────────────────────────────────────────────────

func TestLocalStore_RoundTrip(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	if err := store.Put(ctx, "abc.mp3", []byte("audio-bytes"), "audio/mpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !store.Exists(ctx, "abc.mp3") {
		t.Error("Exists = false after Put")
	}

	rc, err := store.Open(ctx, "abc.mp3")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "audio-bytes" {
		t.Errorf("read %q, want audio-bytes", data)
	}

	if err := store.Delete(ctx, "abc.mp3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Exists(ctx, "abc.mp3") {
		t.Error("Exists = true after Delete")
	}
}

func TestLocalStore_OpenMissing(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	if _, err := store.Open(context.Background(), "nope.mp3"); err == nil {
		t.Error("Open of missing blob succeeded")
	}
}

// ── Cleaner ──────────────────────────────────────────────────────────

// flakyStore fails deletion for configured keys.
type flakyStore struct {
	mu      sync.Mutex
	deleted []string
	failOn  map[string]bool
}

func (f *flakyStore) Put(ctx context.Context, key string, data []byte, ct string) error { return nil }
func (f *flakyStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}
func (f *flakyStore) Exists(ctx context.Context, key string) bool { return false }
func (f *flakyStore) Type() string                                { return "flaky" }

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[key] {
		return errors.New("delete refused")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func TestCleaner_DeletesEnqueued(t *testing.T) {
	store := &flakyStore{}
	c := NewCleaner(store, 10, zerolog.Nop())
	c.Start(1)

	c.Enqueue("a.mp3")
	c.Enqueue("b.wav")
	c.Stop()

	deleted, failed := c.Stats()
	if deleted != 2 || failed != 0 {
		t.Errorf("deleted=%d failed=%d, want 2/0", deleted, failed)
	}
}

func TestCleaner_FailureIsSwallowed(t *testing.T) {
	store := &flakyStore{failOn: map[string]bool{"bad.mp3": true}}
	c := NewCleaner(store, 10, zerolog.Nop())
	c.Start(1)
	failuresBefore := testutil.ToFloat64(metrics.BlobCleanupFailuresTotal)

	c.Enqueue("bad.mp3")
	c.Enqueue("good.mp3")

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return within 5 seconds")
	}

	deleted, failed := c.Stats()
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if got := testutil.ToFloat64(metrics.BlobCleanupFailuresTotal) - failuresBefore; got != 1 {
		t.Errorf("cleanup failure counter rose by %v, want 1", got)
	}
}

func TestCleaner_EnqueueAfterStop(t *testing.T) {
	c := NewCleaner(&flakyStore{}, 2, zerolog.Nop())
	c.Start(1)
	c.Stop()
	// Must not panic on a closed channel
	c.Enqueue("late.mp3")
}
