// Package settle implements the synchronization engine: it drives a case
// through clear, type, settle detection, stabilization and read against a
// page whose update timing is unknown.
package settle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/ui-acceptor/page"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
	"github.com/ethereum-optimism/infra/ui-acceptor/wait"
)

// TypeMode selects how input reaches the control.
type TypeMode int

const (
	// TypeBatch writes the whole input in one update.
	TypeBatch TypeMode = iota
	// TypeProgressive inserts one character at a time with a delay.
	TypeProgressive
)

func (m TypeMode) String() string {
	if m == TypeProgressive {
		return "progressive"
	}
	return "batch"
}

// Observer is notified of every phase the engine enters.
type Observer interface {
	Enter(state types.CaseState)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(types.CaseState)

// Enter implements Observer.
func (f ObserverFunc) Enter(s types.CaseState) { f(s) }

type noopObserver struct{}

func (noopObserver) Enter(types.CaseState) {}

// Config holds the engine dependencies.
type Config struct {
	Timings     types.Timings
	Placeholder string
	Clock       wait.Clock
	Log         log.Logger
}

// Engine synchronizes with one page. It is not safe for concurrent use; the
// runner guarantees exclusive access to the underlying session.
type Engine struct {
	page        page.Page
	timings     types.Timings
	placeholder string
	clock       wait.Clock
	log         log.Logger
	tracer      trace.Tracer
}

// NewEngine creates an engine bound to p.
func NewEngine(p page.Page, cfg Config) (*Engine, error) {
	if p == nil {
		return nil, errors.New("page is required")
	}
	if err := cfg.Timings.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = wait.SystemClock
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	return &Engine{
		page:        p,
		timings:     cfg.Timings,
		placeholder: strings.TrimSpace(cfg.Placeholder),
		clock:       cfg.Clock,
		log:         cfg.Log,
		tracer:      otel.Tracer("settle engine"),
	}, nil
}

// Timings returns the timing table the engine was built with.
func (e *Engine) Timings() types.Timings {
	return e.timings
}

// Clear empties the input control and holds for the after-clear interval.
func (e *Engine) Clear(ctx context.Context) error {
	ctrl, err := e.page.InputControl(ctx)
	if err != nil {
		return fmt.Errorf("locating input for clear: %w", err)
	}
	if err := ctrl.Clear(ctx); err != nil {
		return fmt.Errorf("clearing input: %w", err)
	}
	wait.Hold(e.clock, e.timings.AfterClear)
	return nil
}

// Type writes text into the input control.
func (e *Engine) Type(ctx context.Context, text string, mode TypeMode) error {
	ctrl, err := e.page.InputControl(ctx)
	if err != nil {
		return fmt.Errorf("locating input for typing: %w", err)
	}
	switch mode {
	case TypeProgressive:
		err = ctrl.TypeSequentially(ctx, text, e.timings.PerCharDelay)
	default:
		err = ctrl.SetValue(ctx, text)
	}
	if err != nil {
		return fmt.Errorf("typing input (%s): %w", mode, err)
	}
	return nil
}

// AwaitSettle polls the output surface until it shows rendered text, then
// holds for the quiet period. It returns the time until text first appeared.
//
// The surface is located again on every poll. A surface that is not mounted
// yet, or a read that fails while the page re-renders, counts as "not yet";
// only cancellation of ctx ends the poll early.
func (e *Engine) AwaitSettle(ctx context.Context, obs Observer) (time.Duration, error) {
	if obs == nil {
		obs = noopObserver{}
	}
	obs.Enter(types.StateWaitingForSettle)

	var (
		last    string
		lastErr error
		located bool
	)
	res, err := wait.Await(ctx, func(ctx context.Context) (bool, error) {
		surface, err := e.page.OutputSurface(ctx)
		if err != nil {
			return false, e.pollFailure(ctx, "locating output surface", err, &lastErr)
		}
		located = true
		text, err := surface.ReadText(ctx)
		if err != nil {
			return false, e.pollFailure(ctx, "reading output surface", err, &lastErr)
		}
		last = text
		return e.rendered(text), nil
	}, e.timings.PollInterval, e.timings.PollMaxInterval, e.timings.PollCeiling, e.clock)
	if err != nil {
		if errors.Is(err, wait.ErrCeilingExceeded) {
			return res.Elapsed, &SettleTimeoutError{
				Ceiling:  e.timings.PollCeiling,
				Attempts: res.Attempts,
				LastText: last,
				Located:  located,
				LastErr:  lastErr,
				Err:      err,
			}
		}
		return res.Elapsed, fmt.Errorf("polling output surface: %w", err)
	}
	e.log.Debug("Output appeared", "polls", res.Attempts, "elapsed", res.Elapsed)

	obs.Enter(types.StateStabilizing)
	wait.Hold(e.clock, e.timings.Translation)
	return res.Elapsed, nil
}

// pollFailure records a failed locate or read. It returns a non-nil error
// only when ctx is done, which stops the poll.
func (e *Engine) pollFailure(ctx context.Context, op string, err error, lastErr *error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	*lastErr = fmt.Errorf("%s: %w", op, err)
	e.log.Debug("Settle poll failed, retrying", "op", op, "err", err)
	return nil
}

// Read returns the output text with leading and trailing whitespace removed.
// Interior whitespace, including line breaks, is kept.
func (e *Engine) Read(ctx context.Context) (string, error) {
	surface, err := e.page.OutputSurface(ctx)
	if err != nil {
		return "", fmt.Errorf("locating output surface: %w", err)
	}
	text, err := surface.ReadText(ctx)
	if err != nil {
		return "", fmt.Errorf("reading output surface: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// PerformTranslation runs clear, type, settle and read for input and returns
// the settled output.
func (e *Engine) PerformTranslation(ctx context.Context, input string, mode TypeMode, obs Observer) (types.SettleResult, error) {
	if obs == nil {
		obs = noopObserver{}
	}
	ctx, span := e.tracer.Start(ctx, "perform translation", trace.WithAttributes(
		attribute.Int("input.runes", len([]rune(input))),
		attribute.String("type.mode", mode.String()),
	))
	defer span.End()

	obs.Enter(types.StateClearing)
	if err := e.Clear(ctx); err != nil {
		return types.SettleResult{}, err
	}

	obs.Enter(types.StateTyping)
	if err := e.Type(ctx, input, mode); err != nil {
		return types.SettleResult{}, err
	}

	return e.settleAndRead(ctx, obs)
}

func (e *Engine) settleAndRead(ctx context.Context, obs Observer) (types.SettleResult, error) {
	latency, err := e.AwaitSettle(ctx, obs)
	if err != nil {
		return types.SettleResult{SettleLatency: latency}, err
	}

	obs.Enter(types.StateReading)
	text, err := e.Read(ctx)
	if err != nil {
		return types.SettleResult{SettleLatency: latency}, err
	}
	return types.SettleResult{Observed: text, SettleLatency: latency}, nil
}

// rendered is the settle predicate: non-empty text that is not the placeholder.
func (e *Engine) rendered(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	return e.placeholder == "" || trimmed != e.placeholder
}
