package types

import (
	"fmt"
	"time"
)

// CaseState is a step of the per-case state machine.
type CaseState string

const (
	StateIdle             CaseState = "idle"
	StateClearing         CaseState = "clearing"
	StateTyping           CaseState = "typing"
	StateObservingPartial CaseState = "observing_partial"
	StateWaitingForSettle CaseState = "waiting_for_settle"
	StateStabilizing      CaseState = "stabilizing"
	StateReading          CaseState = "reading"
	StateVerified         CaseState = "verified"
	StatePassed           CaseState = "passed"
	StateFailed           CaseState = "failed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s CaseState) IsTerminal() bool {
	return s == StatePassed || s == StateFailed
}

var allowedTransitions = map[CaseState][]CaseState{
	StateIdle:             {StateClearing},
	StateClearing:         {StateTyping},
	StateTyping:           {StateObservingPartial, StateWaitingForSettle},
	StateObservingPartial: {StateTyping},
	StateWaitingForSettle: {StateStabilizing},
	StateStabilizing:      {StateReading},
	StateReading:          {StateVerified},
	StateVerified:         {StatePassed, StateFailed},
}

// CanTransition reports whether from -> to is a legal step. Every
// non-terminal state may move to StateFailed.
func CanTransition(from, to CaseState) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition records a single state change.
type Transition struct {
	State CaseState
	At    time.Time
}

// StateTracker follows one case execution through the state machine.
type StateTracker struct {
	current CaseState
	history []Transition
	now     func() time.Time
}

// NewStateTracker returns a tracker in StateIdle.
func NewStateTracker(now func() time.Time) *StateTracker {
	if now == nil {
		now = time.Now
	}
	return &StateTracker{
		current: StateIdle,
		history: []Transition{{State: StateIdle, At: now()}},
		now:     now,
	}
}

// Current returns the state the case is in.
func (t *StateTracker) Current() CaseState {
	return t.current
}

// To moves the tracker to next, rejecting illegal transitions.
func (t *StateTracker) To(next CaseState) error {
	if !CanTransition(t.current, next) {
		return fmt.Errorf("illegal case transition %s -> %s", t.current, next)
	}
	t.current = next
	t.history = append(t.history, Transition{State: next, At: t.now()})
	return nil
}

// Fail moves the tracker to StateFailed unless it is already terminal.
func (t *StateTracker) Fail() {
	if t.current.IsTerminal() {
		return
	}
	_ = t.To(StateFailed)
}

// History returns a copy of the recorded transitions.
func (t *StateTracker) History() []Transition {
	out := make([]Transition, len(t.history))
	copy(out, t.history)
	return out
}

// Path returns the visited states in order.
func (t *StateTracker) Path() []CaseState {
	out := make([]CaseState, len(t.history))
	for i, tr := range t.history {
		out[i] = tr.State
	}
	return out
}
