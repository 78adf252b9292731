// Package ingest implements the watch-folder path: audio files dropped
// into a directory are transcribed, and when the filename names the
// speaker, turned into a toolkit, without anyone touching the API.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/snarg/toolkit-engine/internal/audio"
	"github.com/snarg/toolkit-engine/internal/generate"
	"github.com/snarg/toolkit-engine/internal/transcribe"
)

const (
	transcriptSuffix = "_transcript.txt"
	toolkitSuffix    = "_toolkit.md"
)

// Generator produces a toolkit document from a transcript.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (string, error)
}

// Watcher monitors a drop directory for new audio files and writes a
// transcript artifact next to each one. Files named "Name - Title.ext"
// carry the speaker in the filename; those also get a toolkit artifact
// when a generator is configured.
type Watcher struct {
	transcriber *transcribe.Service
	generator   Generator
	watchDir    string
	log         zerolog.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc

	// Debounce: coalesce rapid Create+Write events on the same file.
	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	filesProcessed atomic.Int64
	filesSkipped   atomic.Int64
}

func NewWatcher(transcriber *transcribe.Service, generator Generator, watchDir string, log zerolog.Logger) *Watcher {
	return &Watcher{
		transcriber:    transcriber,
		generator:      generator,
		watchDir:       watchDir,
		log:            log.With().Str("component", "watcher").Logger(),
		debounceTimers: make(map[string]*time.Timer),
	}
}

// Start begins watching the drop directory.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.watchDir); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.log.Info().Str("watch_dir", w.watchDir).Msg("file watcher initialized")
	go w.watchLoop()
	return nil
}

// Stop closes the watcher and cancels in-flight transcriptions.
func (w *Watcher) Stop() {
	if w.watcher != nil {
		w.watcher.Close()
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.log.Info().
		Int64("files_processed", w.filesProcessed.Load()).
		Int64("files_skipped", w.filesSkipped.Load()).
		Msg("file watcher stopped")
}

// Stats reports processed and skipped file counts.
func (w *Watcher) Stats() (processed, skipped int64) {
	return w.filesProcessed.Load(), w.filesSkipped.Load()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !audio.Supported(audio.Ext(event.Name)) {
				continue
			}
			w.scheduleProcess(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// scheduleProcess debounces by 500ms so a file still being copied in is
// read only once it stops growing.
func (w *Watcher) scheduleProcess(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.debounceTimers[path]; ok {
		t.Reset(500 * time.Millisecond)
		return
	}

	w.debounceTimers[path] = time.AfterFunc(500*time.Millisecond, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		w.processFile(path)
	})
}

// TranscriptPath returns where the transcript artifact for an audio file
// lives.
func TranscriptPath(audioPath string) string {
	ext := filepath.Ext(audioPath)
	return strings.TrimSuffix(audioPath, ext) + transcriptSuffix
}

// ToolkitPath returns where the toolkit artifact for an audio file lives.
func ToolkitPath(audioPath string) string {
	ext := filepath.Ext(audioPath)
	return strings.TrimSuffix(audioPath, ext) + toolkitSuffix
}

// SpeakerFromFilename extracts the speaker from the "Name - Title.ext"
// convention, or "" when the filename does not follow it.
func SpeakerFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name, _, found := strings.Cut(base, " - ")
	if !found {
		return ""
	}
	return strings.TrimSpace(name)
}

func (w *Watcher) processFile(path string) {
	artifact := TranscriptPath(path)
	if _, err := os.Stat(artifact); err == nil {
		w.filesSkipped.Add(1)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("failed to read audio file")
		w.filesSkipped.Add(1)
		return
	}

	transcript, err := w.transcriber.Direct(w.ctx, filepath.Base(path), data)
	if err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("watched file transcription failed")
		w.filesSkipped.Add(1)
		return
	}

	if err := os.WriteFile(artifact, []byte(transcript), 0o644); err != nil {
		w.log.Warn().Err(err).Str("path", artifact).Msg("failed to write transcript")
		w.filesSkipped.Add(1)
		return
	}

	speaker := SpeakerFromFilename(path)
	ev := w.log.Info().Str("path", path)
	if speaker != "" {
		ev = ev.Str("speaker", speaker)
	}
	ev.Msg("watched file transcribed")
	w.filesProcessed.Add(1)

	w.generateToolkit(path, speaker, transcript)
}

// generateToolkit writes the toolkit artifact for a transcribed file.
// Files without a speaker in the name skip generation: there is nothing
// to substitute into the prompt.
func (w *Watcher) generateToolkit(path, speaker, transcript string) {
	if w.generator == nil || speaker == "" {
		return
	}
	artifact := ToolkitPath(path)
	if _, err := os.Stat(artifact); err == nil {
		return
	}

	markdown, err := w.generator.Generate(w.ctx, generate.Request{
		Transcript:  transcript,
		SubjectName: speaker,
	})
	if err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("watched file generation failed")
		return
	}
	if err := os.WriteFile(artifact, []byte(markdown), 0o644); err != nil {
		w.log.Warn().Err(err).Str("path", artifact).Msg("failed to write toolkit")
		return
	}
	w.log.Info().Str("path", artifact).Str("speaker", speaker).Msg("watched file toolkit generated")
}
