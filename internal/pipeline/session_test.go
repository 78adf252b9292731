package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestRegistry(t *testing.T, ttl time.Duration) *Registry {
	t.Helper()
	return NewRegistry(ttl, zerolog.Nop())
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	s, err := r.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Machine.Phase() != PhaseCollectingInput {
		t.Errorf("new session phase = %s", s.Machine.Phase())
	}

	got, err := r.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}

	if _, err := r.Get("not-a-token"); CodeOf(err) != CodeAuthRejected {
		t.Errorf("unknown token code = %s, want %s", CodeOf(err), CodeAuthRejected)
	}
}

func TestRegistry_ExpiredSessionRejected(t *testing.T) {
	r := newTestRegistry(t, 10*time.Millisecond)
	s, err := r.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, err := r.Get(s.ID); CodeOf(err) != CodeAuthRejected {
		t.Errorf("expired token code = %s, want %s", CodeOf(err), CodeAuthRejected)
	}
	if r.Len() != 0 {
		t.Errorf("expired session still registered, len = %d", r.Len())
	}
}

func TestRegistry_SweepRemovesIdleSessions(t *testing.T) {
	r := newTestRegistry(t, 10*time.Millisecond)
	if _, err := r.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	r.sweepOnce()
	if r.Len() != 0 {
		t.Errorf("len after sweep = %d, want 0", r.Len())
	}
}

func TestSession_TranscriptionRoundTrip(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	s, _ := r.Create()

	tok, err := s.BeginTranscription()
	if err != nil {
		t.Fatalf("BeginTranscription: %v", err)
	}
	if !s.CompleteTranscription(tok, "first paragraph\n\nsecond", nil) {
		t.Fatal("completion rejected")
	}
	if s.Transcript() != "first paragraph\n\nsecond" {
		t.Errorf("transcript = %q", s.Transcript())
	}
	if s.Machine.Phase() != PhaseReviewingTranscript {
		t.Errorf("phase = %s", s.Machine.Phase())
	}
}

func TestSession_FailedTranscriptionReturnsToCollecting(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	s, _ := r.Create()

	tok, _ := s.BeginTranscription()
	if !s.CompleteTranscription(tok, "", errors.New("upstream down")) {
		t.Fatal("failure completion should still land")
	}
	if s.Machine.Phase() != PhaseCollectingInput {
		t.Errorf("phase = %s", s.Machine.Phase())
	}
	if s.Transcript() != "" {
		t.Errorf("transcript = %q, want empty", s.Transcript())
	}
}

func TestSession_ResetDiscardsLateResult(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	s, _ := r.Create()

	tok, err := s.BeginTranscription()
	if err != nil {
		t.Fatalf("BeginTranscription: %v", err)
	}

	// user abandons the run while the provider is still working
	s.Reset()

	if s.CompleteTranscription(tok, "late arrival", nil) {
		t.Fatal("late result must be discarded")
	}
	if s.Transcript() != "" {
		t.Errorf("late result leaked into the session: %q", s.Transcript())
	}
	if s.Machine.Phase() != PhaseCollectingInput {
		t.Errorf("phase = %s", s.Machine.Phase())
	}
}

func TestSession_GenerationOpensEditor(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	s, _ := r.Create()
	if err := s.ProvideTranscript("pasted text"); err != nil {
		t.Fatalf("ProvideTranscript: %v", err)
	}

	tok, err := s.BeginGeneration("Pastor Dave")
	if err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	if s.Subject() != "Pastor Dave" {
		t.Errorf("subject = %q", s.Subject())
	}
	if !s.CompleteGeneration(tok, "# ToolKit: Hope\n\nbody", nil) {
		t.Fatal("completion rejected")
	}

	ed := s.Editor()
	if ed == nil {
		t.Fatal("editor not opened")
	}
	if got := ed.Document().Source(); got != "# ToolKit: Hope\n\nbody" {
		t.Errorf("document source = %q", got)
	}
	if s.Machine.Phase() != PhaseReviewingResult {
		t.Errorf("phase = %s", s.Machine.Phase())
	}
}

func TestSession_BlankGenerationNeverEntersReview(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	s, _ := r.Create()
	if err := s.ProvideTranscript("pasted text"); err != nil {
		t.Fatal(err)
	}

	for _, markdown := range []string{"", "  \n\t "} {
		tok, err := s.BeginGeneration("Pastor Dave")
		if err != nil {
			t.Fatalf("BeginGeneration: %v", err)
		}
		if !s.CompleteGeneration(tok, markdown, nil) {
			t.Fatal("completion with a fresh token must land")
		}
		if s.Machine.Phase() != PhaseReviewingTranscript {
			t.Errorf("phase after blank result = %s, want %s", s.Machine.Phase(), PhaseReviewingTranscript)
		}
		if s.Editor() != nil {
			t.Error("editor opened on a blank document")
		}
	}
}

func TestSession_BeginGenerationRequiresTranscriptAndSubject(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	s, _ := r.Create()

	// no transcript yet
	if _, err := s.BeginGeneration("Pastor Dave"); CodeOf(err) != CodeInvalidInput {
		t.Errorf("no transcript: code = %s, want %s", CodeOf(err), CodeInvalidInput)
	}
	if s.Machine.Phase() != PhaseCollectingInput {
		t.Errorf("phase moved on rejected begin: %s", s.Machine.Phase())
	}

	if err := s.ProvideTranscript("pasted text"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.BeginGeneration("   "); CodeOf(err) != CodeInvalidInput {
		t.Errorf("blank subject: code = %s, want %s", CodeOf(err), CodeInvalidInput)
	}
	if s.Machine.Phase() != PhaseReviewingTranscript {
		t.Errorf("phase moved on rejected begin: %s", s.Machine.Phase())
	}
	if s.Subject() != "" {
		t.Errorf("subject = %q, want empty", s.Subject())
	}
}

func TestSession_ProvideTranscriptRejectsEmpty(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	s, _ := r.Create()
	if err := s.ProvideTranscript("   \n"); CodeOf(err) != CodeInvalidInput {
		t.Errorf("code = %s, want %s", CodeOf(err), CodeInvalidInput)
	}
}

func TestSession_EditTranscriptOnlyDuringReview(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	s, _ := r.Create()

	if err := s.EditTranscript("early"); CodeOf(err) != CodeInvalidState {
		t.Errorf("edit before review: code = %s", CodeOf(err))
	}

	if err := s.ProvideTranscript("original"); err != nil {
		t.Fatal(err)
	}
	if err := s.EditTranscript("corrected"); err != nil {
		t.Fatalf("EditTranscript: %v", err)
	}
	if s.Transcript() != "corrected" {
		t.Errorf("transcript = %q", s.Transcript())
	}
}

func TestSession_EditTranscriptRejectsBlank(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	s, _ := r.Create()
	if err := s.ProvideTranscript("original"); err != nil {
		t.Fatal(err)
	}

	if err := s.EditTranscript("  \n "); CodeOf(err) != CodeInvalidInput {
		t.Errorf("code = %s, want %s", CodeOf(err), CodeInvalidInput)
	}
	if s.Transcript() != "original" {
		t.Errorf("blank edit replaced the transcript: %q", s.Transcript())
	}
}
