package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/snarg/toolkit-engine/internal/document"
	"github.com/snarg/toolkit-engine/internal/editor"
)

// Session is one user's pipeline run: the state machine plus the
// artifacts it accumulates. The transcript and document survive phase
// changes until a hard reset wipes them.
type Session struct {
	ID      string
	Machine *Machine

	mu         sync.Mutex
	transcript string
	subject    string
	sourceName string
	editor     *editor.Editor
	lastSeen   time.Time
}

func newSession() *Session {
	return &Session{
		ID:       uuid.NewString(),
		Machine:  NewMachine(),
		lastSeen: time.Now(),
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

func (s *Session) Subject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// SetSourceName records the name of the audio file the transcript came
// from, used to name the transcript download artifact.
func (s *Session) SetSourceName(name string) {
	s.mu.Lock()
	s.sourceName = name
	s.mu.Unlock()
}

func (s *Session) SourceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceName
}

// Editor returns the review surface for the generated toolkit, or nil
// before the first generation completes.
func (s *Session) Editor() *editor.Editor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor
}

// Document is a convenience accessor over Editor.
func (s *Session) Document() *document.Document {
	if ed := s.Editor(); ed != nil {
		return ed.Document()
	}
	return nil
}

// ProvideTranscript accepts a pasted or previously saved transcript,
// skipping the transcription step.
func (s *Session) ProvideTranscript(text string) error {
	if strings.TrimSpace(text) == "" {
		return Errorf(CodeInvalidInput, "transcript is empty")
	}
	if err := s.Machine.Transition(PhaseReviewingTranscript); err != nil {
		return err
	}
	s.mu.Lock()
	s.transcript = text
	s.editor = nil
	s.mu.Unlock()
	return nil
}

// EditTranscript replaces the transcript while it is under review. A
// blank replacement is rejected; clearing the input is what Reset is
// for.
func (s *Session) EditTranscript(text string) error {
	if strings.TrimSpace(text) == "" {
		return Errorf(CodeInvalidInput, "transcript is empty")
	}
	if s.Machine.Phase() != PhaseReviewingTranscript && s.Machine.Phase() != PhaseReviewingResult {
		return Errorf(CodeInvalidState, "no transcript to edit in phase %s", s.Machine.Phase())
	}
	s.mu.Lock()
	s.transcript = text
	s.mu.Unlock()
	return nil
}

// BeginTranscription claims the session for one transcription attempt.
func (s *Session) BeginTranscription() (uint64, error) {
	return s.Machine.Begin(PhaseTranscribing)
}

// CompleteTranscription lands a transcription result. Results arriving
// after a reset report false and leave the session untouched.
func (s *Session) CompleteTranscription(token uint64, transcript string, opErr error) bool {
	if opErr != nil {
		return s.Machine.Finish(token, PhaseCollectingInput)
	}
	if !s.Machine.Finish(token, PhaseReviewingTranscript) {
		return false
	}
	s.mu.Lock()
	s.transcript = transcript
	s.mu.Unlock()
	return true
}

// BeginGeneration claims the session for one toolkit synthesis attempt.
// Generating can only be entered with a transcript and a subject name;
// both are checked before the machine moves.
func (s *Session) BeginGeneration(subject string) (uint64, error) {
	if strings.TrimSpace(subject) == "" {
		return 0, Errorf(CodeInvalidInput, "preacher name is required")
	}
	if strings.TrimSpace(s.Transcript()) == "" {
		return 0, Errorf(CodeInvalidInput, "no transcript to generate from")
	}
	token, err := s.Machine.Begin(PhaseGenerating)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.subject = subject
	s.mu.Unlock()
	return token, nil
}

// CompleteGeneration lands a generated toolkit and opens the editor on
// it. Stale results are discarded. A blank document never enters
// review: it is treated exactly like a failed attempt, returning the
// session to the transcript.
func (s *Session) CompleteGeneration(token uint64, markdown string, opErr error) bool {
	if opErr != nil || strings.TrimSpace(markdown) == "" {
		return s.Machine.Finish(token, PhaseReviewingTranscript)
	}
	if !s.Machine.Finish(token, PhaseReviewingResult) {
		return false
	}
	s.mu.Lock()
	s.editor = editor.New(document.New(markdown))
	s.mu.Unlock()
	return true
}

// Reset discards everything but the authentication and returns to
// collecting input. An operation still in flight will find its token
// stale when it completes.
func (s *Session) Reset() {
	s.Machine.Reset()
	s.mu.Lock()
	s.transcript = ""
	s.subject = ""
	s.sourceName = ""
	s.editor = nil
	s.mu.Unlock()
}

// Registry tracks live sessions by bearer token and expires the idle
// ones.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	log      zerolog.Logger
}

func NewRegistry(ttl time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		log:      log.With().Str("component", "sessions").Logger(),
	}
}

// Create mints an authenticated session. The caller has already checked
// the password; the machine still walks the auth edge so a session can
// never exist in awaiting-auth.
func (r *Registry) Create() (*Session, error) {
	s := newSession()
	if err := s.Machine.Transition(PhaseCollectingInput); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.log.Info().Str("session", s.ID).Msg("Session created")
	return s, nil
}

// Get resolves a bearer token. Unknown and expired tokens are
// indistinguishable to the caller.
func (r *Registry) Get(token string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[token]
	r.mu.Unlock()
	if !ok {
		return nil, Errorf(CodeAuthRejected, "session expired or unknown")
	}
	s.mu.Lock()
	expired := time.Since(s.lastSeen) > r.ttl
	s.mu.Unlock()
	if expired {
		r.remove(token)
		return nil, Errorf(CodeAuthRejected, "session expired or unknown")
	}
	s.touch()
	return s, nil
}

func (r *Registry) remove(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

// Sweep removes idle sessions until ctx is cancelled.
func (r *Registry) Sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce()
		}
	}
}

func (r *Registry) sweepOnce() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, s := range r.sessions {
		s.mu.Lock()
		idle := time.Since(s.lastSeen)
		s.mu.Unlock()
		if idle > r.ttl {
			delete(r.sessions, token)
			r.log.Debug().Str("session", token).Dur("idle", idle).Msg("Session expired")
		}
	}
}

// Len reports the live session count.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
