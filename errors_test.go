package acceptor

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/ui-acceptor/runner"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

func TestRuntimeError(t *testing.T) {
	cause := errors.New("target unreachable")
	err := NewRuntimeError(StageRun, cause)

	assert.Equal(t, "runtime error during run: target unreachable", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRuntimeError(err))
	assert.True(t, IsRuntimeError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsRuntimeError(cause))
	assert.False(t, IsRuntimeError(nil))

	assert.Equal(t, "runtime error: x", (&RuntimeError{Err: errors.New("x")}).Error())
}

func TestCaseFailureError(t *testing.T) {
	result := &runner.RunnerResult{
		RunID:    "run-7",
		Status:   types.TestStatusFail,
		Duration: 3 * time.Second,
		Stats:    runner.ResultStats{Total: 4, Passed: 1, Failed: 3},
		Verdicts: []*types.Verdict{
			{CaseID: "P1", Pass: true},
			{CaseID: "N1", Attempt: 1, Kind: types.ErrorKindMismatch},
			{CaseID: "N1", Attempt: 2, Kind: types.ErrorKindMismatch},
			{CaseID: "U1", Kind: types.ErrorKindPartialRender},
		},
	}
	err := NewCaseFailureError(result)

	assert.Equal(t, "run-7", err.RunID)
	assert.Equal(t, 3, err.Failed)
	assert.Equal(t, 4, err.Total)
	assert.Equal(t, []string{"N1", "U1"}, err.CaseIDs, "repeated attempts are listed once")
	assert.Equal(t, map[types.ErrorKind]int{
		types.ErrorKindMismatch:      2,
		types.ErrorKindPartialRender: 1,
	}, err.ByKind)

	msg := err.Error()
	assert.Contains(t, msg, "run run-7: 3 of 4 case executions failed (N1, U1)")
	assert.Contains(t, msg, "FAIL U1 [partial_render_missing]")

	assert.True(t, IsCaseFailureError(err))
	assert.True(t, IsCaseFailureError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsCaseFailureError(NewRuntimeError(StageConfig, errors.New("x"))))
	assert.False(t, IsCaseFailureError(nil))

	var target *CaseFailureError
	require.ErrorAs(t, fmt.Errorf("start: %w", err), &target)
	assert.Equal(t, "run-7", target.RunID)
}

func TestCaseFailureError_NoSummary(t *testing.T) {
	err := &CaseFailureError{RunID: "r", Failed: 1, Total: 2, CaseIDs: []string{"P2"}}
	assert.Equal(t, "run r: 1 of 2 case executions failed (P2)", err.Error())
}
