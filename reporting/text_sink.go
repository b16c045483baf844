package reporting

import (
	"fmt"
	"strings"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

// TextSummarySink collects verdicts and writes summary.log on completion
type TextSummarySink struct {
	baseDir  string
	target   string
	verdicts map[string][]*types.Verdict
}

// NewTextSummarySink creates a new text summary sink
func NewTextSummarySink(baseDir, target string) *TextSummarySink {
	return &TextSummarySink{
		baseDir:  baseDir,
		target:   target,
		verdicts: make(map[string][]*types.Verdict),
	}
}

// Consume collects a verdict for later summary generation
func (s *TextSummarySink) Consume(v *types.Verdict, runID string) error {
	s.verdicts[runID] = append(s.verdicts[runID], v)
	return nil
}

// Complete writes summary.log for runID
func (s *TextSummarySink) Complete(runID string) error {
	content := FormatSummary(NewReport(runID, s.target, s.verdicts[runID]))
	delete(s.verdicts, runID)
	return writeFile(s.baseDir, runID, SummaryFilename, []byte(content))
}

// FormatSummary renders totals, per-suite counts and every failing case with
// its diagnostic.
func FormatSummary(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RUN SUMMARY\n")
	fmt.Fprintf(&b, "===========\n")
	fmt.Fprintf(&b, "Run ID:  %s\n", r.RunID)
	fmt.Fprintf(&b, "Target:  %s\n", r.Target)
	fmt.Fprintf(&b, "Status:  %s\n", strings.ToUpper(string(r.Status)))
	fmt.Fprintf(&b, "Total:   %d\n", r.Total)
	fmt.Fprintf(&b, "Passed:  %d\n", r.Passed)
	fmt.Fprintf(&b, "Failed:  %d\n", r.Failed)
	if r.Total > 0 {
		fmt.Fprintf(&b, "Pass rate: %.1f%%\n", float64(r.Passed)*100/float64(r.Total))
	}

	b.WriteString("\nSUITES\n------\n")
	for _, c := range CountSuites(r.Verdicts) {
		fmt.Fprintf(&b, "%-10s %d/%d passed\n", c.Suite, c.Passed, c.Total)
	}

	var failed []*types.Verdict
	for _, v := range r.Verdicts {
		if !v.Pass {
			failed = append(failed, v)
		}
	}
	if len(failed) == 0 {
		return b.String()
	}

	b.WriteString("\nFAILED CASES\n------------\n")
	for _, v := range failed {
		fmt.Fprintf(&b, "\n%s - %s", v.CaseID, v.Name)
		if v.Attempt > 0 {
			fmt.Fprintf(&b, " (attempt %d)", v.Attempt)
		}
		fmt.Fprintf(&b, " [%s]\n", v.Kind)
		fmt.Fprintf(&b, "  expected: %q\n", v.Expected)
		fmt.Fprintf(&b, "  observed: %q\n", v.Observed)
		if v.PartialObserved != "" {
			fmt.Fprintf(&b, "  partial:  %q\n", v.PartialObserved)
		}
		if v.Error != nil {
			fmt.Fprintf(&b, "  error: %s\n", v.Error)
		}
		if v.Diagnostic != "" {
			for _, line := range strings.Split(v.Diagnostic, "\n") {
				fmt.Fprintf(&b, "  %s\n", line)
			}
		}
	}
	return b.String()
}
