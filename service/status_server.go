package service

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/cors"

	"github.com/ethereum-optimism/infra/ui-acceptor/reporting"
)

const DefaultReportCacheSize = 32

// StatusServer serves liveness and run reports. Reports published in this
// process are cached; older ones are read back from the log directory.
type StatusServer struct {
	log     log.Logger
	baseDir string
	reports *lru.Cache

	mu     sync.RWMutex
	latest string
	server *http.Server
}

// NewStatusServer creates a StatusServer reading reports below baseDir.
func NewStatusServer(logger log.Logger, baseDir string, cacheSize int) (*StatusServer, error) {
	if logger == nil {
		logger = log.New()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultReportCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &StatusServer{
		log:     logger,
		baseDir: baseDir,
		reports: cache,
	}, nil
}

// Publish records report as the latest run.
func (s *StatusServer) Publish(runID string, report []byte) {
	s.reports.Add(runID, report)
	s.mu.Lock()
	s.latest = runID
	s.mu.Unlock()
}

// Latest returns the ID of the most recently published run.
func (s *StatusServer) Latest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Handler returns the routed and CORS-wrapped handler.
func (s *StatusServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/runs/latest", s.handleLatest).Methods(http.MethodGet)
	api.HandleFunc("/runs/{runID}", s.handleRun).Methods(http.MethodGet)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	return c.Handler(r)
}

func (s *StatusServer) Start(addr string) error {
	server := &http.Server{
		Handler: s.Handler(),
		Addr:    addr,
	}
	s.mu.Lock()
	s.server = server
	s.mu.Unlock()
	return server.ListenAndServe()
}

func (s *StatusServer) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	server := s.server
	s.mu.RUnlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *StatusServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.log.Debug("Received health check request", "path", r.URL.Path)
	w.Write([]byte("OK")) //nolint:errcheck
}

func (s *StatusServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	runID := s.Latest()
	if runID == "" {
		http.Error(w, "no run has completed yet", http.StatusNotFound)
		return
	}
	s.serveReport(w, runID)
}

func (s *StatusServer) handleRun(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, mux.Vars(r)["runID"])
}

func (s *StatusServer) serveReport(w http.ResponseWriter, runID string) {
	report, err := s.lookup(runID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "unknown run "+runID, http.StatusNotFound)
			return
		}
		s.log.Error("failed to read run report", "runID", runID, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(report); err != nil {
		s.log.Error("failed to send run report", "runID", runID, "err", err)
	}
}

func (s *StatusServer) lookup(runID string) ([]byte, error) {
	if v, ok := s.reports.Get(runID); ok {
		return v.([]byte), nil
	}
	if s.baseDir == "" || !validRunID(runID) {
		return nil, fs.ErrNotExist
	}
	report, err := reporting.ReadReportBytes(s.baseDir, runID)
	if err != nil {
		return nil, err
	}
	s.reports.Add(runID, report)
	return report, nil
}

// validRunID rejects IDs that could escape the log directory.
func validRunID(runID string) bool {
	if runID == "" || runID == "." || runID == ".." {
		return false
	}
	for _, r := range runID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
