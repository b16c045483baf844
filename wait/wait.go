// Package wait provides the bounded polling primitive used to synchronize
// with an externally rendered UI that offers no completion signal.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCeilingExceeded is returned by Until when the condition never held.
var ErrCeilingExceeded = errors.New("condition not met before ceiling")

// Condition is polled by Until. A returned error aborts polling.
type Condition func(ctx context.Context) (bool, error)

// Options configures a polling loop.
type Options struct {
	Backoff Backoff
	Ceiling time.Duration
	Clock   Clock
}

// Result describes a finished polling loop.
type Result struct {
	Attempts int
	Elapsed  time.Duration
}

// Until evaluates cond until it returns true, the ceiling elapses, or ctx is
// done. The first evaluation happens immediately.
func Until(ctx context.Context, cond Condition, opts Options) (Result, error) {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	if opts.Backoff.Initial <= 0 {
		return Result{}, fmt.Errorf("poll interval must be positive, got %s", opts.Backoff.Initial)
	}
	backoff := opts.Backoff
	backoff.Reset()

	start := clock.Now()
	var res Result
	for {
		if err := ctx.Err(); err != nil {
			res.Elapsed = clock.Now().Sub(start)
			return res, err
		}
		res.Attempts++
		ok, err := cond(ctx)
		res.Elapsed = clock.Now().Sub(start)
		if err != nil {
			return res, err
		}
		if ok {
			return res, nil
		}
		if res.Elapsed >= opts.Ceiling {
			return res, fmt.Errorf("%w after %d attempts (%s)", ErrCeilingExceeded, res.Attempts, opts.Ceiling)
		}
		step := backoff.Next()
		if remaining := opts.Ceiling - res.Elapsed; step > remaining {
			step = remaining
		}
		clock.Sleep(step)
	}
}

// Await is Until with a fixed-plus-capped backoff built from interval and maxInterval.
func Await(ctx context.Context, cond Condition, interval, maxInterval, ceiling time.Duration, clock Clock) (Result, error) {
	return Until(ctx, cond, Options{
		Backoff: Backoff{Initial: interval, Max: maxInterval},
		Ceiling: ceiling,
		Clock:   clock,
	})
}
