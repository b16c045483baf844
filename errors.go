package acceptor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum-optimism/infra/ui-acceptor/runner"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

// Stages a RuntimeError can come from.
const (
	StageConfig = "config"
	StageSetup  = "setup"
	StageRun    = "run"
)

// RuntimeError means the harness itself could not do its job (exit code 2):
// bad configuration, no browser, an unreachable target. It says nothing about
// the translator's correctness.
type RuntimeError struct {
	Stage string
	Err   error
}

func (e *RuntimeError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("runtime error: %v", e.Err)
	}
	return fmt.Sprintf("runtime error during %s: %v", e.Stage, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(stage string, err error) *RuntimeError {
	return &RuntimeError{Stage: stage, Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// CaseFailureError reports a completed run in which at least one case
// failed (exit code 1).
type CaseFailureError struct {
	RunID  string
	Failed int
	Total  int
	// CaseIDs lists each failing case once, in run order.
	CaseIDs []string
	ByKind  map[types.ErrorKind]int
	// Summary is the run's human readable failure listing.
	Summary string
}

// NewCaseFailureError summarizes the failures of result.
func NewCaseFailureError(result *runner.RunnerResult) *CaseFailureError {
	e := &CaseFailureError{
		RunID:   result.RunID,
		Failed:  result.Stats.Failed,
		Total:   result.Stats.Total,
		ByKind:  make(map[types.ErrorKind]int),
		Summary: result.String(),
	}
	seen := make(map[string]bool)
	for _, v := range result.Failed() {
		e.ByKind[v.Kind]++
		if !seen[v.CaseID] {
			seen[v.CaseID] = true
			e.CaseIDs = append(e.CaseIDs, v.CaseID)
		}
	}
	return e
}

func (e *CaseFailureError) Error() string {
	msg := fmt.Sprintf("run %s: %d of %d case executions failed (%s)",
		e.RunID, e.Failed, e.Total, strings.Join(e.CaseIDs, ", "))
	if e.Summary == "" {
		return msg
	}
	return msg + "\n" + e.Summary
}

// IsCaseFailureError checks if the error is or wraps a CaseFailureError
func IsCaseFailureError(err error) bool {
	var caseErr *CaseFailureError
	return err != nil && errors.As(err, &caseErr)
}
