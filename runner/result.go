package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

// SuiteResult captures aggregated results for a suite
type SuiteResult struct {
	Suite    types.Suite
	Verdicts []*types.Verdict
	Status   types.TestStatus
	Duration time.Duration
	Stats    ResultStats
}

// RunnerResult captures the complete run results
type RunnerResult struct {
	RunID    string
	Verdicts []*types.Verdict // registry order, attempts consecutive
	Suites   map[types.Suite]*SuiteResult
	Status   types.TestStatus
	Duration time.Duration
	Stats    ResultStats
}

// ResultStats tracks verdict statistics at each level
type ResultStats struct {
	Total     int
	Passed    int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
}

func (s *ResultStats) add(v *types.Verdict) {
	s.Total++
	if v.Pass {
		s.Passed++
	} else {
		s.Failed++
	}
}

func statusFromStats(s ResultStats) types.TestStatus {
	if s.Failed > 0 {
		return types.TestStatusFail
	}
	return types.TestStatusPass
}

// newRunnerResult aggregates ordered verdicts into suite and run totals.
func newRunnerResult(runID string, verdicts []*types.Verdict, start, end time.Time) *RunnerResult {
	result := &RunnerResult{
		RunID:    runID,
		Verdicts: verdicts,
		Suites:   make(map[types.Suite]*SuiteResult),
		Duration: end.Sub(start),
		Stats:    ResultStats{StartTime: start, EndTime: end},
	}
	for _, v := range verdicts {
		suite, ok := result.Suites[v.Suite]
		if !ok {
			suite = &SuiteResult{Suite: v.Suite}
			result.Suites[v.Suite] = suite
		}
		suite.Verdicts = append(suite.Verdicts, v)
		suite.Duration += v.Duration
		suite.Stats.add(v)
		result.Stats.add(v)
	}
	for _, suite := range result.Suites {
		suite.Status = statusFromStats(suite.Stats)
	}
	result.Status = statusFromStats(result.Stats)
	return result
}

// OrderedSuites returns the suites present in the result in execution order.
func (r *RunnerResult) OrderedSuites() []*SuiteResult {
	var out []*SuiteResult
	for _, s := range types.Suites {
		if suite, ok := r.Suites[s]; ok {
			out = append(out, suite)
		}
	}
	return out
}

// Failed returns the failing verdicts in order.
func (r *RunnerResult) Failed() []*types.Verdict {
	var out []*types.Verdict
	for _, v := range r.Verdicts {
		if !v.Pass {
			out = append(out, v)
		}
	}
	return out
}

// PassRate returns the share of passing verdicts in percent.
func (r *RunnerResult) PassRate() float64 {
	if r.Stats.Total == 0 {
		return 0
	}
	return float64(r.Stats.Passed) * 100 / float64(r.Stats.Total)
}

// String returns a short human readable summary with every failure.
func (r *RunnerResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %s, %d/%d passed (%.1f%%) in %s\n",
		r.RunID, r.Status, r.Stats.Passed, r.Stats.Total, r.PassRate(), r.Duration.Round(time.Millisecond))
	for _, v := range r.Failed() {
		fmt.Fprintf(&b, "  FAIL %s [%s]\n", v.CaseID, v.Kind)
		fmt.Fprintf(&b, "    expected: %q\n", v.Expected)
		fmt.Fprintf(&b, "    observed: %q\n", v.Observed)
		if v.Error != nil {
			fmt.Fprintf(&b, "    error: %v\n", v.Error)
		}
	}
	return b.String()
}
