package pipeline

import "sync"

// Phase is one step of a session's journey from login to a reviewed
// toolkit.
type Phase string

const (
	PhaseAwaitingAuth        Phase = "awaiting-auth"
	PhaseCollectingInput     Phase = "collecting-input"
	PhaseTranscribing        Phase = "transcribing"
	PhaseReviewingTranscript Phase = "reviewing-transcript"
	PhaseGenerating          Phase = "generating"
	PhaseReviewingResult     Phase = "reviewing-result"
)

// transitions lists the legal edges. The collecting-input to
// reviewing-transcript edge covers a pasted transcript, which skips the
// transcription step entirely. The reviewing-result to generating edge
// covers regeneration after transcript or template edits.
var transitions = map[Phase][]Phase{
	PhaseAwaitingAuth:        {PhaseCollectingInput},
	PhaseCollectingInput:     {PhaseTranscribing, PhaseReviewingTranscript},
	PhaseTranscribing:        {PhaseReviewingTranscript, PhaseCollectingInput},
	PhaseReviewingTranscript: {PhaseGenerating},
	PhaseGenerating:          {PhaseReviewingResult, PhaseReviewingTranscript},
	PhaseReviewingResult:     {PhaseGenerating},
}

func legal(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Machine tracks one session's phase. At most one long-running operation
// may be in flight; a hard reset invalidates any in-flight operation so
// its result lands dead.
type Machine struct {
	mu      sync.Mutex
	phase   Phase
	busy    bool
	attempt uint64
}

func NewMachine() *Machine {
	return &Machine{phase: PhaseAwaitingAuth}
}

func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Transition moves between phases synchronously. It refuses to preempt a
// phase with an operation in flight.
func (m *Machine) Transition(to Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return Errorf(CodeBusy, "an operation is already in progress")
	}
	if !legal(m.phase, to) {
		return Errorf(CodeInvalidState, "cannot move from %s to %s", m.phase, to)
	}
	m.phase = to
	return nil
}

// Begin enters a long-running phase and marks the machine busy. The
// returned token must be presented to Finish; a reset in the meantime
// invalidates it.
func (m *Machine) Begin(to Phase) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return 0, Errorf(CodeBusy, "an operation is already in progress")
	}
	if !legal(m.phase, to) {
		return 0, Errorf(CodeInvalidState, "cannot move from %s to %s", m.phase, to)
	}
	m.phase = to
	m.busy = true
	return m.attempt, nil
}

// Finish completes the operation identified by token and lands on the
// given phase. A stale token means the session was reset while the
// operation ran; the result is discarded and Finish reports false.
func (m *Machine) Finish(token uint64, to Phase) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token != m.attempt {
		return false
	}
	if !legal(m.phase, to) {
		return false
	}
	m.phase = to
	m.busy = false
	return true
}

// Reset returns an authenticated session to collecting-input, whatever
// it was doing. Bumping the attempt counter orphans any operation still
// in flight.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseAwaitingAuth {
		return
	}
	m.phase = PhaseCollectingInput
	m.busy = false
	m.attempt++
}
