package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/ui-acceptor/logging"
	"github.com/ethereum-optimism/infra/ui-acceptor/metrics"
	"github.com/ethereum-optimism/infra/ui-acceptor/page"
	"github.com/ethereum-optimism/infra/ui-acceptor/registry"
	"github.com/ethereum-optimism/infra/ui-acceptor/settle"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
	"github.com/ethereum-optimism/infra/ui-acceptor/verify"
	"github.com/ethereum-optimism/infra/ui-acceptor/wait"
)

// TestRunner defines the interface for running translation cases
type TestRunner interface {
	RunAllCases(ctx context.Context) (*RunnerResult, error)
	RunCase(ctx context.Context, caseID string) ([]*types.Verdict, error)
}

// TestRunnerWithFileLogger extends the TestRunner interface with a method
// to set the file logger after creation
type TestRunnerWithFileLogger interface {
	TestRunner
	SetFileLogger(logger *logging.FileLogger)
}

// runner struct implements TestRunner interface
type runner struct {
	registry   *registry.Registry
	factory    page.Factory
	targetURL  string
	timings    types.Timings
	selectors  page.Selectors
	workers    int
	repeat     int
	freshPage  bool
	typeMode   settle.TypeMode
	clock      wait.Clock
	log        log.Logger
	progress   ProgressIndicator
	fileLogger *logging.FileLogger
	tracer     trace.Tracer
}

// Config holds configuration for creating a new runner
type Config struct {
	Registry  *registry.Registry
	Factory   page.Factory // opens one page per session
	TargetURL string
	Timings   types.Timings
	Selectors page.Selectors
	Workers   int  // concurrent sessions, default 1
	Repeat    int  // executions per case, default 1
	FreshPage bool // re-navigate before every case
	// Progressive types regular cases character by character instead of
	// writing the whole input at once.
	Progressive bool
	Clock       wait.Clock
	Log         log.Logger
	Progress    ProgressIndicator
	FileLogger  *logging.FileLogger
}

// NewTestRunner creates a new test runner instance
func NewTestRunner(cfg Config) (TestRunnerWithFileLogger, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Factory == nil {
		return nil, fmt.Errorf("page factory is required")
	}
	if cfg.TargetURL == "" {
		return nil, fmt.Errorf("target URL is required")
	}
	if err := cfg.Timings.Validate(); err != nil {
		return nil, err
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Repeat <= 0 {
		cfg.Repeat = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = wait.SystemClock
	}
	if cfg.Progress == nil {
		cfg.Progress = NewNoOpProgressIndicator()
	}
	mode := settle.TypeBatch
	if cfg.Progressive {
		mode = settle.TypeProgressive
	}

	cfg.Log.Debug("NewTestRunner()", "target", cfg.TargetURL, "cases", cfg.Registry.Len(),
		"workers", cfg.Workers, "repeat", cfg.Repeat, "freshPage", cfg.FreshPage, "typeMode", mode)

	return &runner{
		registry:   cfg.Registry,
		factory:    cfg.Factory,
		targetURL:  cfg.TargetURL,
		timings:    cfg.Timings,
		selectors:  cfg.Selectors,
		workers:    cfg.Workers,
		repeat:     cfg.Repeat,
		freshPage:  cfg.FreshPage,
		typeMode:   mode,
		clock:      cfg.Clock,
		log:        cfg.Log,
		progress:   cfg.Progress,
		fileLogger: cfg.FileLogger,
		tracer:     otel.Tracer("test runner"),
	}, nil
}

// SetFileLogger sets the file logger for the runner
func (r *runner) SetFileLogger(logger *logging.FileLogger) {
	r.fileLogger = logger
}

// RunAllCases implements the TestRunner interface. A navigation failure while
// opening sessions aborts the run; every other failure is confined to the
// case it happened in.
func (r *runner) RunAllCases(ctx context.Context) (*RunnerResult, error) {
	runID := uuid.New().String()
	if r.fileLogger != nil {
		runID = r.fileLogger.GetRunID()
	}
	ctx, span := r.tracer.Start(ctx, "run", trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	start := time.Now()
	cases := r.registry.Cases()
	r.log.Info("Running all cases", "run_id", runID, "cases", len(cases), "workers", r.workers, "repeat", r.repeat)

	sessions, err := r.openSessions(ctx, min(r.workers, len(cases)))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			r.log.Warn("Failed to close sessions", "err", err)
		}
	}()

	verdicts := make([]*types.Verdict, len(cases)*r.repeat)
	r.progress.StartRun(len(verdicts))

	p := pool.New().WithMaxGoroutines(sessions.size())
	for i, c := range cases {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() {
			s, err := sessions.acquire(ctx)
			if err != nil {
				return
			}
			defer sessions.release(s)
			for attempt := 1; attempt <= r.repeat; attempt++ {
				if ctx.Err() != nil {
					return
				}
				v := r.runCase(ctx, s, c, attempt)
				verdicts[i*r.repeat+attempt-1] = v
				r.progress.CompleteCase(v)
			}
		})
	}
	p.Wait()
	r.progress.CompleteRun()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run interrupted: %w", err)
	}

	result := newRunnerResult(runID, verdicts, start, time.Now())
	r.log.Info("Run complete", "run_id", runID, "status", result.Status,
		"passed", result.Stats.Passed, "failed", result.Stats.Failed, "duration", result.Duration)

	if r.fileLogger != nil {
		for _, v := range result.Verdicts {
			if err := r.fileLogger.LogVerdict(v, runID); err != nil {
				r.log.Error("Failed to log verdict", "case", v.CaseID, "err", err)
			}
		}
	}
	return result, nil
}

// RunCase implements the TestRunner interface. It opens a dedicated session
// and executes every attempt of a single case.
func (r *runner) RunCase(ctx context.Context, caseID string) ([]*types.Verdict, error) {
	c, ok := r.registry.GetCase(caseID)
	if !ok {
		return nil, fmt.Errorf("unknown case %q", caseID)
	}
	sessions, err := r.openSessions(ctx, 1)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sessions.Close() }()

	s, err := sessions.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer sessions.release(s)

	out := make([]*types.Verdict, 0, r.repeat)
	for attempt := 1; attempt <= r.repeat; attempt++ {
		out = append(out, r.runCase(ctx, s, c, attempt))
	}
	return out, nil
}

func (r *runner) openSessions(ctx context.Context, n int) (*sessionPool, error) {
	if n <= 0 {
		n = 1
	}
	sessions := make([]*session, 0, n)
	closeAll := func() {
		for _, s := range sessions {
			_ = s.page.Close()
		}
	}
	for id := 0; id < n; id++ {
		p, err := r.factory(ctx)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to open page for session %d: %w", id, err)
		}
		sessions = append(sessions, &session{id: id, page: p})
		if err := r.navigate(ctx, p); err != nil {
			closeAll()
			return nil, err
		}
		engine, err := settle.NewEngine(p, settle.Config{
			Timings:     r.timings,
			Placeholder: r.selectors.Placeholder,
			Clock:       r.clock,
			Log:         r.log.New("session", id),
		})
		if err != nil {
			closeAll()
			return nil, err
		}
		sessions[id].engine = engine
	}
	return newSessionPool(sessions), nil
}

// navigate loads the target and holds for the page-load interval.
func (r *runner) navigate(ctx context.Context, p page.Page) error {
	if err := p.Navigate(ctx, r.targetURL); err != nil {
		if !page.IsNavigationError(err) {
			err = page.NewNavigationError(r.targetURL, err)
		}
		return err
	}
	if err := p.WaitForLoad(ctx); err != nil {
		r.log.Warn("Page did not report load completion", "url", r.targetURL, "err", err)
	}
	wait.Hold(r.clock, r.timings.PageLoad)
	return nil
}

// runCase executes one attempt of c on s and always returns a verdict.
func (r *runner) runCase(ctx context.Context, s *session, c types.Case, attempt int) (verdict *types.Verdict) {
	base := c.Base()
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("case %s", base.ID), trace.WithAttributes(
		attribute.String("case.suite", string(base.Suite)),
		attribute.Int("case.attempt", attempt),
	))
	defer span.End()

	caseLog := r.log.New("case", base.ID, "suite", base.Suite, "session", s.id)
	tracker := types.NewStateTracker(r.clock.Now)
	start := r.clock.Now()
	r.progress.StartCase(base.ID)

	defer func() {
		if rec := recover(); rec != nil {
			errMsg := fmt.Sprintf("runtime error: %v", rec)
			caseLog.Error("Panic while running case", "error", errMsg)
			tracker.Fail()
			verdict = failedVerdict(c, fmt.Errorf("%s", errMsg), types.ErrorKindRuntime)
		}
		verdict.Attempt = attempt
		verdict.Duration = r.clock.Now().Sub(start)
		verdict.States = tracker.Path()
		span.SetAttributes(attribute.Bool("case.pass", verdict.Pass))
		metrics.RecordVerdict(r.targetURL, verdict)
		r.logVerdict(caseLog, verdict)

		// cooldown, still holding the session
		wait.Hold(r.clock, r.timings.BetweenTests)
	}()

	if r.freshPage {
		if err := r.navigate(ctx, s.page); err != nil {
			tracker.Fail()
			return failedVerdict(c, err, types.ErrorKindNavigation)
		}
	}

	observer := settle.ObserverFunc(func(state types.CaseState) {
		if err := tracker.To(state); err != nil {
			caseLog.Warn("Unexpected state transition", "err", err)
		}
		caseLog.Trace("Case state", "state", state)
	})

	var (
		res types.SettleResult
		err error
	)
	if ic, ok := c.Incremental(); ok {
		res, err = s.engine.PerformIncremental(ctx, ic, observer)
	} else {
		res, err = s.engine.PerformTranslation(ctx, base.Input, r.typeMode, observer)
	}
	if err != nil {
		tracker.Fail()
		v := failedVerdict(c, err, classify(err))
		v.Observed = res.Observed
		v.PartialObserved = res.PartialObserved
		v.Latency = res.SettleLatency
		metrics.RecordErrorDetails(string(v.Kind), err)
		return v
	}

	_ = tracker.To(types.StateVerified)
	v := verify.Compare(c, res.Observed, res.SettleLatency)
	v.PartialObserved = res.PartialObserved
	if v.Pass {
		_ = tracker.To(types.StatePassed)
	} else {
		tracker.Fail()
	}
	return &v
}

func (r *runner) logVerdict(l log.Logger, v *types.Verdict) {
	if v.Pass {
		l.Info("Case passed", "attempt", v.Attempt, "latency", v.Latency, "duration", v.Duration)
		return
	}
	l.Warn("Case failed", "attempt", v.Attempt, "kind", v.Kind, "expected", v.Expected,
		"observed", v.Observed, "err", v.ErrorMessage())
}

func failedVerdict(c types.Case, err error, kind types.ErrorKind) *types.Verdict {
	base := c.Base()
	return &types.Verdict{
		CaseID:   base.ID,
		Name:     base.Name,
		Suite:    base.Suite,
		Category: base.Category,
		Expected: c.Expected(),
		Kind:     kind,
		Error:    err,
	}
}

// classify maps an engine or adapter error onto the verdict error kind.
// A settle timeout during which the output surface was never found is
// reported as an unavailable adapter.
func classify(err error) types.ErrorKind {
	var timeout *settle.SettleTimeoutError
	switch {
	case errors.As(err, &timeout) && timeout.SurfaceMissing():
		return types.ErrorKindAdapterUnavailable
	case errors.Is(err, settle.ErrSettleTimeout):
		return types.ErrorKindSettleTimeout
	case errors.Is(err, settle.ErrPartialRender):
		return types.ErrorKindPartialRender
	case page.IsNavigationError(err):
		return types.ErrorKindNavigation
	case errors.Is(err, page.ErrAdapterUnavailable):
		return types.ErrorKindAdapterUnavailable
	}
	return types.ErrorKindRuntime
}
