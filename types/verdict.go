package types

import (
	"encoding/json"
	"time"
)

// TestStatus represents the outcome of a case or an aggregate
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
)

// ErrorKind names why a case failed.
type ErrorKind string

const (
	ErrorKindNone               ErrorKind = ""
	ErrorKindMismatch           ErrorKind = "verification_mismatch"
	ErrorKindSettleTimeout      ErrorKind = "settle_timeout"
	ErrorKindAdapterUnavailable ErrorKind = "adapter_unavailable"
	ErrorKindPartialRender      ErrorKind = "partial_render_missing"
	ErrorKindNavigation         ErrorKind = "navigation"
	ErrorKindRuntime            ErrorKind = "runtime"
)

// SettleResult is the transient product of one synchronization pass.
type SettleResult struct {
	Observed        string
	SettleLatency   time.Duration // end of typing until the output first appeared
	PartialObserved string        // incremental mode only
}

// Verdict is the outcome of one case execution.
type Verdict struct {
	CaseID          string
	Name            string
	Suite           Suite
	Category        Category
	Attempt         int
	Pass            bool
	Observed        string
	Expected        string
	Latency         time.Duration
	Duration        time.Duration
	Kind            ErrorKind
	Error           error
	Diagnostic      string
	States          []CaseState
	// PartialObserved is the output seen after the partial input of an
	// incremental case.
	PartialObserved string
}

// Status maps Pass onto a TestStatus.
func (v *Verdict) Status() TestStatus {
	if v.Pass {
		return TestStatusPass
	}
	return TestStatusFail
}

// ErrorMessage returns the error text, if any.
func (v *Verdict) ErrorMessage() string {
	if v.Error == nil {
		return ""
	}
	return v.Error.Error()
}

type verdictJSON struct {
	CaseID     string      `json:"caseId"`
	Name       string      `json:"name"`
	Suite      Suite       `json:"suite"`
	Category   Category    `json:"category"`
	Attempt    int         `json:"attempt"`
	Pass       bool        `json:"pass"`
	Observed   string      `json:"observed"`
	Expected   string      `json:"expected"`
	LatencyMs  int64       `json:"latencyMs"`
	DurationMs int64       `json:"durationMs"`
	Kind       ErrorKind   `json:"errorKind,omitempty"`
	Error      string      `json:"error,omitempty"`
	Diagnostic string      `json:"diagnostic,omitempty"`
	States     []CaseState `json:"states,omitempty"`
	Partial    string      `json:"partialObserved,omitempty"`
}

// MarshalJSON renders the run-report entry for a verdict.
func (v *Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(verdictJSON{
		CaseID:     v.CaseID,
		Name:       v.Name,
		Suite:      v.Suite,
		Category:   v.Category,
		Attempt:    v.Attempt,
		Pass:       v.Pass,
		Observed:   v.Observed,
		Expected:   v.Expected,
		LatencyMs:  v.Latency.Milliseconds(),
		DurationMs: v.Duration.Milliseconds(),
		Kind:       v.Kind,
		Error:      v.ErrorMessage(),
		Diagnostic: v.Diagnostic,
		States:     v.States,
		Partial:    v.PartialObserved,
	})
}
