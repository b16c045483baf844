package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/ui-acceptor/metrics"
)

const (
	StatusHost = "0.0.0.0"
	StatusPort = 8080

	MetricsHost = "0.0.0.0"
	MetricsPort = 7300
)

type Config struct {
	Log log.Logger
	// LogDir is where run reports are read back from.
	LogDir     string
	StatusHost string
	StatusPort int
	// MetricsEnabled starts the prometheus endpoint on MetricsHost:MetricsPort.
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int
	CacheSize      int
}

type Service struct {
	Status  *StatusServer
	Metrics *MetricsServer

	config Config
}

func New(cfg Config) (*Service, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.StatusHost == "" {
		cfg.StatusHost = StatusHost
	}
	if cfg.StatusPort == 0 {
		cfg.StatusPort = StatusPort
	}
	if cfg.MetricsHost == "" {
		cfg.MetricsHost = MetricsHost
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = MetricsPort
	}
	status, err := NewStatusServer(cfg.Log, cfg.LogDir, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	s := &Service{
		Status: status,
		config: cfg,
	}
	if cfg.MetricsEnabled {
		s.Metrics = &MetricsServer{}
	}
	return s, nil
}

func (s *Service) Start() {
	l := s.config.Log
	l.Info("service starting")

	go func() {
		addr := net.JoinHostPort(s.config.StatusHost, strconv.Itoa(s.config.StatusPort))
		l.Info("starting status server", "addr", addr)
		if err := s.Status.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("error starting status server", "err", err)
			metrics.RecordErrorDetails("status_server", err)
		}
	}()

	if s.Metrics != nil {
		go func() {
			addr := net.JoinHostPort(s.config.MetricsHost, strconv.Itoa(s.config.MetricsPort))
			l.Info("starting metrics server", "addr", addr)
			if err := s.Metrics.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error("error starting metrics server", "err", err)
				metrics.RecordErrorDetails("metrics_server", err)
			}
		}()
	}

	l.Info("service started")
}

func (s *Service) Shutdown(ctx context.Context) error {
	l := s.config.Log
	l.Info("service shutting down")

	err := s.Status.Shutdown(ctx)
	l.Info("status server stopped")

	if s.Metrics != nil {
		err = errors.Join(err, s.Metrics.Shutdown(ctx))
		l.Info("metrics stopped")
	}

	l.Info("service stopped")
	return err
}
