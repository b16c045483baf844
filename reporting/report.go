// Package reporting renders run results into files under the run directory.
package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

const (
	RunDirectoryPrefix = "testrun-"
	ReportFilename     = "report.json"
	SummaryFilename    = "summary.log"
)

// Report is the machine readable record of one run.
type Report struct {
	RunID        string           `json:"runId"`
	Target       string           `json:"target"`
	Driver       string           `json:"driver,omitempty"`
	CasesVersion string           `json:"casesVersion,omitempty"`
	Status       types.TestStatus `json:"status"`
	Total        int              `json:"total"`
	Passed       int              `json:"passed"`
	Failed       int              `json:"failed"`
	GeneratedAt  time.Time        `json:"generatedAt"`
	Verdicts     []*types.Verdict `json:"verdicts"`
}

// NewReport aggregates verdicts, kept in the order given.
func NewReport(runID, target string, verdicts []*types.Verdict) *Report {
	r := &Report{
		RunID:       runID,
		Target:      target,
		GeneratedAt: time.Now().UTC(),
		Verdicts:    verdicts,
		Status:      types.TestStatusPass,
	}
	if r.Verdicts == nil {
		r.Verdicts = []*types.Verdict{}
	}
	for _, v := range verdicts {
		r.Total++
		if v.Pass {
			r.Passed++
		} else {
			r.Failed++
			r.Status = types.TestStatusFail
		}
	}
	return r
}

// RunDir returns the directory of runID under baseDir.
func RunDir(baseDir, runID string) string {
	return filepath.Join(baseDir, RunDirectoryPrefix+runID)
}

// ReportPath returns the report.json path of runID under baseDir.
func ReportPath(baseDir, runID string) string {
	return filepath.Join(RunDir(baseDir, runID), ReportFilename)
}

// ReadReportBytes returns the raw report.json of a past run.
func ReadReportBytes(baseDir, runID string) ([]byte, error) {
	data, err := os.ReadFile(ReportPath(baseDir, runID))
	if err != nil {
		return nil, fmt.Errorf("failed to read report for run %s: %w", runID, err)
	}
	return data, nil
}

func writeFile(baseDir, runID, name string, content []byte) error {
	outputDir := RunDir(baseDir, runID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// JSONReportSink collects verdicts and writes report.json on completion
type JSONReportSink struct {
	baseDir      string
	target       string
	casesVersion string
	driver       string
	verdicts     map[string][]*types.Verdict
}

// NewJSONReportSink creates a new JSON report sink
func NewJSONReportSink(baseDir, target, casesVersion, driver string) *JSONReportSink {
	return &JSONReportSink{
		baseDir:      baseDir,
		target:       target,
		casesVersion: casesVersion,
		driver:       driver,
		verdicts:     make(map[string][]*types.Verdict),
	}
}

// Consume collects a verdict for later report generation
func (s *JSONReportSink) Consume(v *types.Verdict, runID string) error {
	s.verdicts[runID] = append(s.verdicts[runID], v)
	return nil
}

// Complete writes report.json for runID
func (s *JSONReportSink) Complete(runID string) error {
	report := NewReport(runID, s.target, s.verdicts[runID])
	report.CasesVersion = s.casesVersion
	report.Driver = s.driver

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	delete(s.verdicts, runID)
	return writeFile(s.baseDir, runID, ReportFilename, data)
}
