package acceptor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sourcegraph/conc"
)

// failureStreakWarning is the number of consecutive failed runs after which
// every further failure is logged as a warning with the streak length.
const failureStreakWarning = 3

// RunFunc executes one full acceptance run. The context is cancelled when
// the scheduler stops.
type RunFunc func(ctx context.Context) error

// RunScheduler decides when acceptance runs happen.
type RunScheduler interface {
	Start(ctx context.Context, run RunFunc) error
	Stop() error
	Stopped() bool
	WaitForShutdown(ctx context.Context) error
}

// IntervalScheduler runs once immediately and then, unless in run-once mode,
// again every interval. Ticks that arrive while a run is in progress are
// dropped rather than queued.
type IntervalScheduler struct {
	interval time.Duration
	runOnce  bool
	logger   log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     conc.WaitGroup

	running  atomic.Bool
	runs     atomic.Int64
	failures atomic.Int64
}

// NewIntervalScheduler creates an IntervalScheduler.
func NewIntervalScheduler(interval time.Duration, runOnce bool, logger log.Logger) *IntervalScheduler {
	return &IntervalScheduler{
		interval: interval,
		runOnce:  runOnce,
		logger:   logger,
	}
}

// Start performs the first run synchronously and returns its error. In
// continuous mode later runs happen in the background and their errors are
// only logged.
func (s *IntervalScheduler) Start(ctx context.Context, run RunFunc) error {
	if run == nil {
		return errors.New("run function is required")
	}
	if !s.runOnce && s.interval <= 0 {
		return errors.New("run interval must be positive in continuous mode")
	}
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	if s.runOnce {
		s.logger.Info("Starting scheduler in run-once mode")
		defer s.running.Store(false)
		defer cancel()
		return s.execute(runCtx, run)
	}

	s.logger.Info("Starting scheduler in continuous mode", "interval", s.interval)
	if err := s.execute(runCtx, run); err != nil {
		s.running.Store(false)
		cancel()
		return err
	}

	s.wg.Go(func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				s.logger.Debug("Stopping periodic runner", "runs", s.runs.Load())
				s.running.Store(false)
				return
			case <-ticker.C:
				if runCtx.Err() != nil {
					continue
				}
				s.logger.Info("Starting periodic run", "run", s.runs.Load()+1)
				if err := s.execute(runCtx, run); err != nil && runCtx.Err() == nil {
					s.logger.Error("Periodic run failed", "error", err)
				}
			}
		}
	})
	return nil
}

func (s *IntervalScheduler) execute(ctx context.Context, run RunFunc) error {
	s.runs.Add(1)
	err := run(ctx)
	if err == nil {
		s.failures.Store(0)
		return nil
	}
	if streak := s.failures.Add(1); streak >= failureStreakWarning {
		s.logger.Warn("Runs keep failing", "consecutive", streak)
	}
	return err
}

// Stop cancels any in-progress run and ends the periodic loop. Calling it
// more than once is harmless.
func (s *IntervalScheduler) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		s.logger.Debug("Scheduler not running, nothing to stop")
		return nil
	}
	cancel()
	s.running.Store(false)
	return nil
}

// Stopped reports whether no run loop is active.
func (s *IntervalScheduler) Stopped() bool {
	return !s.running.Load()
}

// Runs returns how many runs have been started.
func (s *IntervalScheduler) Runs() int64 {
	return s.runs.Load()
}

// ConsecutiveFailures returns the length of the current failure streak.
func (s *IntervalScheduler) ConsecutiveFailures() int64 {
	return s.failures.Load()
}

// WaitForShutdown blocks until the periodic runner has exited or ctx ends.
func (s *IntervalScheduler) WaitForShutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("Timed out waiting for periodic runner to exit", "error", ctx.Err())
		return ctx.Err()
	}
}
