package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	acceptor "github.com/ethereum-optimism/infra/ui-acceptor"
	"github.com/ethereum-optimism/infra/ui-acceptor/exitcodes"
	"github.com/ethereum-optimism/infra/ui-acceptor/page"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitcodes.Success},
		{"case failures", &acceptor.CaseFailureError{RunID: "r", Failed: 2, Total: 3}, exitcodes.TestFailure},
		{"runtime", acceptor.NewRuntimeError(acceptor.StageConfig, errors.New("bad config")), exitcodes.RuntimeErr},
		{
			"wrapped navigation failure",
			fmt.Errorf("start: %w", acceptor.NewRuntimeError(acceptor.StageRun, page.NewNavigationError("http://x", errors.New("refused")))),
			exitcodes.RuntimeErr,
		},
		{"unclassified", errors.New("boom"), exitcodes.TestFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}
