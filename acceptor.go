// Package acceptor runs the Singlish to Sinhala translator acceptance cases
// against a live UI, once or on an interval.
package acceptor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/ui-acceptor/logging"
	"github.com/ethereum-optimism/infra/ui-acceptor/page"
	"github.com/ethereum-optimism/infra/ui-acceptor/registry"
	"github.com/ethereum-optimism/infra/ui-acceptor/reporting"
	"github.com/ethereum-optimism/infra/ui-acceptor/runner"
	"github.com/ethereum-optimism/infra/ui-acceptor/service"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
	"github.com/ethereum-optimism/infra/ui-acceptor/wait"
)

// acceptor implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &acceptor{}

type acceptor struct {
	config    *Config
	version   string
	registry  *registry.Registry
	runner    runner.TestRunnerWithFileLogger
	scheduler RunScheduler
	formatter ResultFormatter
	reporter  MetricsReporter
	service   *service.Service

	mu     sync.Mutex
	result *runner.RunnerResult

	running  atomic.Bool
	stopOnce sync.Once

	shutdownCallback func(error) // Callback to signal application shutdown
}

// Option customises construction, mainly for tests.
type Option func(*options)

type options struct {
	factory page.Factory
	clock   wait.Clock
}

// WithPageFactory replaces the driver selected by the config.
func WithPageFactory(f page.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithClock sets the clock used for the fixed holds.
func WithClock(c wait.Clock) Option {
	return func(o *options) { o.clock = c }
}

func New(_ context.Context, config *Config, version string, shutdownCallback func(error), opts ...Option) (*acceptor, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	o := &options{clock: wait.SystemClock}
	for _, opt := range opts {
		opt(o)
	}

	config.Log.Debug("Creating acceptor with config",
		"target", config.TargetURL,
		"driver", config.Driver,
		"cases", config.CasesFile,
		"workers", config.Workers,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	reg, err := registry.NewRegistry(registry.Config{
		Log:       config.Log,
		CasesFile: config.CasesFile,
		Suites:    config.Suites,
		CaseIDs:   config.CaseIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	factory := o.factory
	if factory == nil {
		if factory, err = NewPageFactory(config); err != nil {
			return nil, err
		}
	}

	progress := runner.NewNoOpProgressIndicator()
	if config.ShowProgress {
		progress = runner.NewBarProgressIndicator(os.Stderr)
	}

	testRunner, err := runner.NewTestRunner(runner.Config{
		Registry:    reg,
		Factory:     factory,
		TargetURL:   config.TargetURL,
		Timings:     config.Timings,
		Selectors:   config.Selectors,
		Workers:     config.Workers,
		Repeat:      config.Repeat,
		FreshPage:   config.FreshPage,
		Progressive: config.Progressive,
		Clock:       o.clock,
		Log:         config.Log,
		Progress:    progress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}

	var svc *service.Service
	if config.StatusEnabled || config.MetricsEnabled {
		svc, err = service.New(service.Config{
			Log:            config.Log,
			LogDir:         config.LogDir,
			StatusHost:     config.StatusHost,
			StatusPort:     config.StatusPort,
			MetricsEnabled: config.MetricsEnabled,
			MetricsHost:    config.MetricsHost,
			MetricsPort:    config.MetricsPort,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create service: %w", err)
		}
	}
	config.Log.Info("acceptor.New: created registry and test runner",
		"cases", reg.Len(), "source", reg.Source(), "version", reg.Version())

	return &acceptor{
		config:           config,
		version:          version,
		registry:         reg,
		runner:           testRunner,
		scheduler:        NewIntervalScheduler(config.RunInterval, config.RunOnce, config.Log),
		formatter:        NewConsoleResultFormatter(config.Log, nil),
		reporter:         NewDefaultMetricsReporter(config.TargetURL),
		service:          svc,
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the cases immediately and then, in continuous mode, on every
// interval. Start implements the cliapp.Lifecycle interface.
func (a *acceptor) Start(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			err = NewRuntimeError(StageRun, fmt.Errorf("panic: %v", r))
		}
	}()

	a.running.Store(true)

	if a.service != nil {
		a.service.Start()
	}

	if err := a.scheduler.Start(ctx, a.runCases); err != nil {
		a.config.Log.Error("Runtime error running cases", "error", err)
		return err
	}

	if !a.config.RunOnce {
		a.config.Log.Debug("ui-acceptor started in continuous mode", "interval", a.config.RunInterval)
		return nil
	}

	a.config.Log.Info("Cases completed, exiting (run-once mode)")
	result := a.LastResult()
	if result != nil && result.Status == types.TestStatusFail {
		a.config.Log.Warn("Run completed with failures, returning exit code 1")
		return NewCaseFailureError(result)
	}

	go func() {
		a.shutdownCallback(nil)
	}()
	return nil
}

// runCases executes one full run with its own file logger.
func (a *acceptor) runCases(ctx context.Context) error {
	runID := uuid.New().String()
	fileLogger, err := logging.NewFileLogger(a.config.LogDir, runID, logging.RunInfo{
		Target:       a.config.TargetURL,
		CasesVersion: a.registry.Version(),
		Driver:       a.config.Driver.String(),
	})
	if err != nil {
		return NewRuntimeError(StageSetup, fmt.Errorf("failed to create file logger: %w", err))
	}
	a.runner.SetFileLogger(fileLogger)

	a.config.Log.Info("Running all cases...", "run_id", runID)
	result, err := a.runner.RunAllCases(ctx)
	if err != nil {
		a.config.Log.Error("Runtime error running cases", "error", err)
		// no partial report for an aborted run
		_ = os.Remove(fileLogger.GetBaseDir())
		return NewRuntimeError(StageRun, err)
	}

	if err := fileLogger.Complete(runID); err != nil {
		a.config.Log.Error("Failed to write run reports", "run_id", runID, "error", err)
	}

	a.mu.Lock()
	a.result = result
	a.mu.Unlock()

	if err := a.formatter.FormatResults(result); err != nil {
		a.config.Log.Error("Failed to format results", "error", err)
	}
	a.reporter.ReportResults(result)
	a.publish(runID)

	a.config.Log.Info("Run completed", "run_id", result.RunID, "status", result.Status,
		"passed", result.Stats.Passed, "failed", result.Stats.Failed,
		"report", reporting.ReportPath(a.config.LogDir, runID))
	return nil
}

func (a *acceptor) publish(runID string) {
	if a.service == nil {
		return
	}
	report, err := reporting.ReadReportBytes(a.config.LogDir, runID)
	if err != nil {
		a.config.Log.Error("Failed to load report for status server", "run_id", runID, "error", err)
		return
	}
	a.service.Status.Publish(runID, report)
}

// LastResult returns the result of the most recent completed run.
func (a *acceptor) LastResult() *runner.RunnerResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Stop stops scheduling and the status and metrics servers.
// Stop implements the cliapp.Lifecycle interface.
func (a *acceptor) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping ui-acceptor")

	var err error
	a.stopOnce.Do(func() {
		a.running.Store(false)
		err = a.scheduler.Stop()
		if a.service != nil {
			err = errors.Join(err, a.service.Shutdown(ctx))
		}
	})

	a.config.Log.Info("ui-acceptor stopped successfully")
	return err
}

// Stopped implements the cliapp.Lifecycle interface.
func (a *acceptor) Stopped() bool {
	return !a.running.Load()
}

// WaitForShutdown blocks until the periodic runner has exited.
func (a *acceptor) WaitForShutdown(ctx context.Context) error {
	return a.scheduler.WaitForShutdown(ctx)
}

