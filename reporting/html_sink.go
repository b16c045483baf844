package reporting

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

const HTMLFilename = "results.html"

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var resultsTemplate = template.Must(
	template.New("results.html.tmpl").Funcs(templateFuncs()).ParseFS(templateFS, "templates/results.html.tmpl"),
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"upper": strings.ToUpper,
		"latency": func(d time.Duration) string {
			if d <= 0 {
				return "-"
			}
			return fmt.Sprintf("%dms", d.Milliseconds())
		},
		"joinStates": func(states []types.CaseState) string {
			parts := make([]string, len(states))
			for i, s := range states {
				parts[i] = string(s)
			}
			return strings.Join(parts, " -> ")
		},
	}
}

// SuiteCount is the per-suite tally shown in the HTML report.
type SuiteCount struct {
	Suite  types.Suite
	Passed int
	Failed int
	Total  int
}

type htmlView struct {
	Report *Report
	Suites []SuiteCount
}

// CountSuites tallies verdicts per suite in suite execution order, skipping
// suites with no verdicts.
func CountSuites(verdicts []*types.Verdict) []SuiteCount {
	var out []SuiteCount
	for _, suite := range types.Suites {
		c := SuiteCount{Suite: suite}
		for _, v := range verdicts {
			if v.Suite != suite {
				continue
			}
			c.Total++
			if v.Pass {
				c.Passed++
			} else {
				c.Failed++
			}
		}
		if c.Total > 0 {
			out = append(out, c)
		}
	}
	return out
}

// RenderHTML renders a report as a self-contained HTML page.
func RenderHTML(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	view := htmlView{Report: r, Suites: CountSuites(r.Verdicts)}
	if err := resultsTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render HTML report: %w", err)
	}
	return buf.Bytes(), nil
}

// HTMLSink collects verdicts and writes results.html on completion
type HTMLSink struct {
	baseDir      string
	target       string
	casesVersion string
	driver       string
	verdicts     map[string][]*types.Verdict
}

// NewHTMLSink creates a new HTML report sink
func NewHTMLSink(baseDir, target, casesVersion, driver string) *HTMLSink {
	return &HTMLSink{
		baseDir:      baseDir,
		target:       target,
		casesVersion: casesVersion,
		driver:       driver,
		verdicts:     make(map[string][]*types.Verdict),
	}
}

// Consume collects a verdict for later HTML generation
func (s *HTMLSink) Consume(v *types.Verdict, runID string) error {
	s.verdicts[runID] = append(s.verdicts[runID], v)
	return nil
}

// Complete writes results.html for runID
func (s *HTMLSink) Complete(runID string) error {
	report := NewReport(runID, s.target, s.verdicts[runID])
	report.CasesVersion = s.casesVersion
	report.Driver = s.driver
	delete(s.verdicts, runID)

	content, err := RenderHTML(report)
	if err != nil {
		return err
	}
	return writeFile(s.baseDir, runID, HTMLFilename, content)
}
