package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/ui-acceptor/reporting"
)

func get(t *testing.T, srv *httptest.Server, path string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func newTestServer(t *testing.T, baseDir string) (*StatusServer, *httptest.Server) {
	t.Helper()
	s, err := NewStatusServer(log.New(), baseDir, 2)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func TestStatusServer_Healthz(t *testing.T) {
	_, srv := newTestServer(t, "")
	code, body, _ := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body)
}

func TestStatusServer_Latest(t *testing.T) {
	s, srv := newTestServer(t, "")

	code, _, _ := get(t, srv, "/api/v1/runs/latest")
	assert.Equal(t, http.StatusNotFound, code)

	s.Publish("run-1", []byte(`{"runId":"run-1"}`))
	s.Publish("run-2", []byte(`{"runId":"run-2"}`))
	assert.Equal(t, "run-2", s.Latest())

	code, body, hdr := get(t, srv, "/api/v1/runs/latest")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, `{"runId":"run-2"}`, body)
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))

	code, body, _ = get(t, srv, "/api/v1/runs/run-1")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, `{"runId":"run-1"}`, body)
}

func TestStatusServer_ReadsEvictedRunsFromDisk(t *testing.T) {
	dir := t.TempDir()
	runDir := reporting.RunDir(dir, "old")
	require.NoError(t, os.MkdirAll(runDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, reporting.ReportFilename), []byte(`{"runId":"old"}`), 0644))

	s, srv := newTestServer(t, dir)
	s.Publish("a", []byte(`{}`))
	s.Publish("b", []byte(`{}`))

	code, body, _ := get(t, srv, "/api/v1/runs/old")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, `{"runId":"old"}`, body)

	code, _, _ = get(t, srv, "/api/v1/runs/missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStatusServer_CORS(t *testing.T) {
	_, srv := newTestServer(t, "")
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestValidRunID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"3f2a9c1e-0000-4000-8000-000000000000", true},
		{"run_1", true},
		{"", false},
		{"..", false},
		{"a/b", false},
		{"a.b", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, validRunID(tt.id))
		})
	}
}

func TestService_Defaults(t *testing.T) {
	s, err := New(Config{Log: log.New()})
	require.NoError(t, err)
	assert.Nil(t, s.Metrics)
	assert.Equal(t, StatusPort, s.config.StatusPort)
	assert.Equal(t, MetricsPort, s.config.MetricsPort)

	s, err = New(Config{Log: log.New(), MetricsEnabled: true})
	require.NoError(t, err)
	assert.NotNil(t, s.Metrics)
}
