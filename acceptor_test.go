package acceptor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/ui-acceptor/flags"
	"github.com/ethereum-optimism/infra/ui-acceptor/page"
	"github.com/ethereum-optimism/infra/ui-acceptor/page/pagetest"
	"github.com/ethereum-optimism/infra/ui-acceptor/reporting"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
	"github.com/ethereum-optimism/infra/ui-acceptor/wait"
)

const acceptorCases = `version: v1.2.0
positive:
  - {id: P1, name: first, input: mama, expected: මම, length: S}
  - {id: P2, name: second, input: oyaa, expected: ඔයා, length: S}
ui:
  - {id: U1, name: progressive, input: mama yanavaa, partial_input: "mama ", expected_full: මම යනවා, length: S}
`

var translations = map[string]string{
	"mama":         "මම",
	"oyaa":         "ඔයා",
	"mama yanavaa": "මම යනවා",
}

type testEnv struct {
	config *Config
	clock  *wait.FakeClock
	opened atomic.Int32

	mu       sync.Mutex
	navErr   error
	override map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	casesFile := filepath.Join(dir, "cases.yaml")
	require.NoError(t, os.WriteFile(casesFile, []byte(acceptorCases), 0o644))
	return &testEnv{
		clock: wait.NewFakeClock(time.Unix(1_700_000_000, 0)),
		config: &Config{
			TargetURL: "https://translator.test/",
			CasesFile: casesFile,
			Driver:    flags.DriverChromedp,
			Workers:   1,
			Repeat:    1,
			RunOnce:   true,
			LogDir:    filepath.Join(dir, "logs"),
			Selectors: page.DefaultSelectors(),
			Timings:   types.DefaultTimings(),
			Log:       log.New(),
		},
	}
}

func (e *testEnv) factory(context.Context) (page.Page, error) {
	e.opened.Add(1)
	e.mu.Lock()
	defer e.mu.Unlock()
	table := make(map[string]string, len(translations))
	for k, v := range translations {
		table[k] = v
	}
	for k, v := range e.override {
		table[k] = v
	}
	p := pagetest.New(e.clock, pagetest.Table(table), 300*time.Millisecond)
	p.NavigateErr = e.navErr
	return p, nil
}

func (e *testEnv) newAcceptor(t *testing.T, shutdown func(error)) *acceptor {
	t.Helper()
	if shutdown == nil {
		shutdown = func(error) {}
	}
	a, err := New(context.Background(), e.config, "test", shutdown, WithPageFactory(e.factory), WithClock(e.clock))
	require.NoError(t, err)
	return a
}

// reportView is the subset of report.json the tests inspect.
type reportView struct {
	RunID        string           `json:"runId"`
	Driver       string           `json:"driver"`
	CasesVersion string           `json:"casesVersion"`
	Status       types.TestStatus `json:"status"`
	Total        int              `json:"total"`
	Verdicts     []struct {
		CaseID string `json:"caseId"`
		Pass   bool   `json:"pass"`
	} `json:"verdicts"`
}

func readReport(t *testing.T, logDir, runID string) reportView {
	t.Helper()
	data, err := reporting.ReadReportBytes(logDir, runID)
	require.NoError(t, err)
	var report reportView
	require.NoError(t, json.Unmarshal(data, &report))
	return report
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), nil, "test", nil)
	assert.Error(t, err)

	env := newTestEnv(t)
	env.config.CaseIDs = []string{"does-not-exist"}
	_, err = New(context.Background(), env.config, "test", nil, WithPageFactory(env.factory))
	assert.ErrorContains(t, err, "failed to create registry")
}

func TestAcceptor_RunOncePasses(t *testing.T) {
	env := newTestEnv(t)
	shutdownCalled := make(chan error, 1)
	a := env.newAcceptor(t, func(err error) { shutdownCalled <- err })

	require.NoError(t, a.Start(context.Background()))

	select {
	case err := <-shutdownCalled:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback not invoked")
	}

	result := a.LastResult()
	require.NotNil(t, result)
	assert.Equal(t, types.TestStatusPass, result.Status)
	assert.Equal(t, 3, result.Stats.Passed)

	report := readReport(t, env.config.LogDir, result.RunID)
	assert.Equal(t, "v1.2.0", report.CasesVersion)
	assert.Equal(t, "chromedp", report.Driver)
	require.Len(t, report.Verdicts, 3)
	assert.Equal(t, "P1", report.Verdicts[0].CaseID)
	assert.Equal(t, "U1", report.Verdicts[2].CaseID)

	require.NoError(t, a.Stop(context.Background()))
	assert.True(t, a.Stopped())
}

func TestAcceptor_RunOnceFailures(t *testing.T) {
	env := newTestEnv(t)
	env.override = map[string]string{"oyaa": "ඔය"}
	a := env.newAcceptor(t, func(error) { t.Error("shutdown must not be requested on failure") })

	err := a.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsCaseFailureError(err))
	assert.Contains(t, err.Error(), "FAIL P2 [verification_mismatch]")

	result := a.LastResult()
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Stats.Failed)

	var caseErr *CaseFailureError
	require.ErrorAs(t, err, &caseErr)
	assert.Equal(t, result.RunID, caseErr.RunID)
	assert.Equal(t, result.Stats.Total, caseErr.Total)
	assert.Equal(t, 1, caseErr.Failed)
	assert.Equal(t, []string{"P2"}, caseErr.CaseIDs)
	assert.Equal(t, 1, caseErr.ByKind[types.ErrorKindMismatch])

	summary, err := os.ReadFile(filepath.Join(reporting.RunDir(env.config.LogDir, result.RunID), reporting.SummaryFilename))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "P2")
}

func TestAcceptor_NavigationFailureIsRuntimeError(t *testing.T) {
	env := newTestEnv(t)
	env.navErr = errors.New("connection refused")
	a := env.newAcceptor(t, nil)

	err := a.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.True(t, page.IsNavigationError(err))
	var runtimeErr *RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	assert.Equal(t, StageRun, runtimeErr.Stage)
	assert.Nil(t, a.LastResult())

	entries, err := os.ReadDir(env.config.LogDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "aborted runs leave no report")
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestAcceptor_ContinuousModeServesLatestReport(t *testing.T) {
	env := newTestEnv(t)
	env.config.RunOnce = false
	env.config.RunInterval = 20 * time.Millisecond
	env.config.StatusEnabled = true
	env.config.StatusHost = "127.0.0.1"
	env.config.StatusPort = freePort(t)
	a := env.newAcceptor(t, func(error) { t.Error("continuous mode must not request shutdown") })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))

	// one session per run
	require.Eventually(t, func() bool { return env.opened.Load() >= 3 }, 10*time.Second, 10*time.Millisecond)

	url := "http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(env.config.StatusPort)) + "/api/v1/runs/latest"
	var body []byte
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		body, err = io.ReadAll(resp.Body)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	var report reportView
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, types.TestStatusPass, report.Status)
	assert.Equal(t, 3, report.Total)

	require.NoError(t, a.Stop(context.Background()))
	require.NoError(t, a.WaitForShutdown(context.Background()))
	assert.True(t, a.Stopped())
}
