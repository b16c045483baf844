package acceptor

import (
	"github.com/ethereum-optimism/infra/ui-acceptor/metrics"
	"github.com/ethereum-optimism/infra/ui-acceptor/runner"
)

// MetricsReporter is responsible for reporting metrics from run results.
type MetricsReporter interface {
	ReportResults(result *runner.RunnerResult)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct {
	target string
}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter for target.
func NewDefaultMetricsReporter(target string) *DefaultMetricsReporter {
	return &DefaultMetricsReporter{target: target}
}

// ReportResults records the run totals. Per-case metrics are emitted by the
// runner as each case completes.
func (r *DefaultMetricsReporter) ReportResults(result *runner.RunnerResult) {
	metrics.RecordRun(
		r.target,
		result.RunID,
		result.Status,
		result.Stats.Total,
		result.Stats.Passed,
		result.Stats.Failed,
		result.Duration,
	)
}
