package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the default prometheus registry.
type MetricsServer struct {
	mu     sync.Mutex
	server *http.Server
}

func (m *MetricsServer) Start(addr string) error {
	hdlr := http.NewServeMux()
	hdlr.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Handler: hdlr,
		Addr:    addr,
	}
	m.mu.Lock()
	m.server = server
	m.mu.Unlock()
	return server.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	server := m.server
	m.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
