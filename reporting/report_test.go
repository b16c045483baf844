package reporting

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

func sampleVerdicts() []*types.Verdict {
	return []*types.Verdict{
		{
			CaseID:   "Pos_Fun_0002",
			Name:     "Convert a simple daily need statement",
			Suite:    types.SuitePositive,
			Category: types.CategoryFunctionalPositive,
			Attempt:  1,
			Pass:     true,
			Observed: "මට වතුර ඕනේ.",
			Expected: "මට වතුර ඕනේ.",
			Latency:  420 * time.Millisecond,
			Duration: 6 * time.Second,
		},
		{
			CaseID:     "Neg_Fun_004",
			Name:       "Line break in sentence",
			Suite:      types.SuiteNegative,
			Category:   types.CategoryFormatting,
			Attempt:    1,
			Observed:   "මම office යනවාඅද meeting එකක් තියෙනවා",
			Expected:   "මම office යනවා\nඅද meeting එකක් තියෙනවා",
			Kind:       types.ErrorKindMismatch,
			Diagnostic: "first difference at rune 14",
		},
		{
			CaseID: "Neg_Fun_009",
			Name:   "Repeated Character Handling",
			Suite:  types.SuiteNegative,
			Kind:   types.ErrorKindSettleTimeout,
			Error:  errors.New("output did not settle within 10s"),
		},
	}
}

func TestNewReport(t *testing.T) {
	r := NewReport("run-1", "https://example.test/", sampleVerdicts())
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 1, r.Passed)
	assert.Equal(t, 2, r.Failed)
	assert.Equal(t, types.TestStatusFail, r.Status)

	empty := NewReport("run-2", "t", nil)
	assert.Equal(t, types.TestStatusPass, empty.Status)
	assert.NotNil(t, empty.Verdicts)
}

func TestJSONReportSink(t *testing.T) {
	dir := t.TempDir()
	sink := NewJSONReportSink(dir, "https://example.test/", "v1.0.0", "chromedp")
	for _, v := range sampleVerdicts() {
		require.NoError(t, sink.Consume(v, "run-1"))
	}
	require.NoError(t, sink.Complete("run-1"))

	data, err := ReadReportBytes(dir, "run-1")
	require.NoError(t, err)

	var decoded struct {
		RunID        string `json:"runId"`
		Status       string `json:"status"`
		CasesVersion string `json:"casesVersion"`
		Driver       string `json:"driver"`
		Verdicts     []struct {
			CaseID    string `json:"caseId"`
			Pass      bool   `json:"pass"`
			Observed  string `json:"observed"`
			Expected  string `json:"expected"`
			LatencyMs int64  `json:"latencyMs"`
			ErrorKind string `json:"errorKind"`
			Error     string `json:"error"`
		} `json:"verdicts"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, "fail", decoded.Status)
	assert.Equal(t, "v1.0.0", decoded.CasesVersion)
	assert.Equal(t, "chromedp", decoded.Driver)
	require.Len(t, decoded.Verdicts, 3)
	assert.Equal(t, "Pos_Fun_0002", decoded.Verdicts[0].CaseID)
	assert.Equal(t, int64(420), decoded.Verdicts[0].LatencyMs)
	assert.Equal(t, "මම office යනවා\nඅද meeting එකක් තියෙනවා", decoded.Verdicts[1].Expected)
	assert.Equal(t, "settle_timeout", decoded.Verdicts[2].ErrorKind)
	assert.Contains(t, decoded.Verdicts[2].Error, "did not settle")
}

func TestJSONReportSink_EmptyRun(t *testing.T) {
	dir := t.TempDir()
	sink := NewJSONReportSink(dir, "t", "", "")
	require.NoError(t, sink.Complete("empty"))
	assert.FileExists(t, filepath.Join(dir, "testrun-empty", ReportFilename))
}

func TestReadReportBytes_Missing(t *testing.T) {
	_, err := ReadReportBytes(t.TempDir(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestTextSummarySink(t *testing.T) {
	dir := t.TempDir()
	sink := NewTextSummarySink(dir, "https://example.test/")
	for _, v := range sampleVerdicts() {
		require.NoError(t, sink.Consume(v, "run-1"))
	}
	require.NoError(t, sink.Complete("run-1"))

	content, err := os.ReadFile(filepath.Join(dir, "testrun-run-1", SummaryFilename))
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "Status:  FAIL")
	assert.Contains(t, text, "Total:   3")
	assert.Contains(t, text, "positive   1/1 passed")
	assert.Contains(t, text, "negative   0/2 passed")
	assert.Contains(t, text, "Neg_Fun_004 - Line break in sentence (attempt 1) [verification_mismatch]")
	assert.Contains(t, text, `expected: "මම office යනවා\nඅද meeting එකක් තියෙනවා"`)
	assert.Contains(t, text, "  first difference at rune 14")
	assert.Contains(t, text, "error: output did not settle within 10s")
	assert.NotContains(t, text, "Pos_Fun_0002 -")
	assert.NotContains(t, text, "partial:")
}

func TestFormatSummary_PartialObserved(t *testing.T) {
	r := NewReport("run-ui", "https://example.test/", []*types.Verdict{{
		CaseID:          "Pos_UI_0001",
		Name:            "Real-time output update",
		Suite:           types.SuiteUI,
		Attempt:         1,
		Kind:            types.ErrorKindSettleTimeout,
		PartialObserved: "මම",
		Error:           errors.New("output did not settle within 10s"),
	}})
	text := FormatSummary(r)
	assert.Contains(t, text, "Pos_UI_0001 - Real-time output update (attempt 1) [settle_timeout]")
	assert.Contains(t, text, `partial:  "මම"`)

	html, err := RenderHTML(r)
	require.NoError(t, err)
	assert.Contains(t, string(html), `partial: <span class="text">මම</span>`)
}
