package acceptor

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/ui-acceptor/runner"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

// ResultFormatter is responsible for formatting and displaying run results.
type ResultFormatter interface {
	FormatResults(result *runner.RunnerResult) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger log.Logger
	out    io.Writer
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter writing to
// out, or stdout when out is nil.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer) *ConsoleResultFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleResultFormatter{
		logger: logger,
		out:    out,
	}
}

// FormatResults renders the result table followed by the failure digest.
func (f *ConsoleResultFormatter) FormatResults(result *runner.RunnerResult) error {
	f.logger.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Translator Acceptance Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"Type", "ID", "Latency", "Cases", "Passed", "Failed", "Status", "Error",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "ID", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Latency", Align: text.AlignRight},
		{Name: "Cases", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, suite := range result.OrderedSuites() {
		t.AppendRow(table.Row{
			"Suite",
			suite.Suite.String(),
			"",
			"-",
			suite.Stats.Passed,
			suite.Stats.Failed,
			getResultString(suite.Status),
			"",
		})
		for i, v := range suite.Verdicts {
			prefix := "├─"
			if i == len(suite.Verdicts)-1 {
				prefix = "└─"
			}
			t.AppendRow(table.Row{
				"",
				fmt.Sprintf("%s %s", prefix, caseLabel(v)),
				formatLatency(v.Latency),
				"1",
				boolToInt(v.Pass),
				boolToInt(!v.Pass),
				getResultString(v.Status()),
				errorSummary(v),
			})
		}
		t.AppendSeparator()
	}

	if result.Status == types.TestStatusPass {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(result.Duration),
		result.Stats.Total,
		result.Stats.Passed,
		result.Stats.Failed,
		getResultString(result.Status),
		"",
	})

	t.Render()

	f.printFailureDigest(result)
	return nil
}

// printFailureDigest lists every failing case with expected and observed
// text and the mismatch diagnostic.
func (f *ConsoleResultFormatter) printFailureDigest(result *runner.RunnerResult) {
	failed := result.Failed()
	if len(failed) == 0 {
		color.New(color.FgGreen).Fprintf(f.out, "All %d cases passed (run %s)\n", result.Stats.Total, result.RunID) //nolint:errcheck
		return
	}

	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(f.out, "%d of %d cases failed (run %s)\n", len(failed), result.Stats.Total, result.RunID) //nolint:errcheck
	for _, v := range failed {
		red.Fprintf(f.out, "✗ %s", caseLabel(v)) //nolint:errcheck
		fmt.Fprintf(f.out, " %s [%s]\n", v.Name, v.Kind)
		fmt.Fprintf(f.out, "    expected: %q\n", v.Expected)
		fmt.Fprintf(f.out, "    observed: %q\n", v.Observed)
		if v.Error != nil {
			fmt.Fprintf(f.out, "    error:    %v\n", v.Error)
		}
		if v.Diagnostic != "" {
			for _, line := range strings.Split(strings.TrimRight(v.Diagnostic, "\n"), "\n") {
				color.New(color.FgYellow).Fprintf(f.out, "    %s\n", line) //nolint:errcheck
			}
		}
	}
}

func caseLabel(v *types.Verdict) string {
	if v.Attempt > 1 {
		return fmt.Sprintf("%s #%d", v.CaseID, v.Attempt)
	}
	return v.CaseID
}

// errorSummary is the first line of the failure cause, kept short for the table.
func errorSummary(v *types.Verdict) string {
	if v.Pass {
		return ""
	}
	msg := string(v.Kind)
	if v.Error != nil {
		msg = v.Error.Error()
	}
	if idx := strings.Index(msg, "\n"); idx != -1 {
		msg = msg[:idx]
	}
	if r := []rune(msg); len(r) > 80 {
		msg = string(r[:77]) + "..."
	}
	return msg
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// getResultString returns a marker for the result status
func getResultString(status types.TestStatus) string {
	if status == types.TestStatusPass {
		return "✓ pass"
	}
	return "✗ fail"
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatLatency(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
