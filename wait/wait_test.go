package wait

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: 250 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, b.Next())
	assert.Equal(t, 200*time.Millisecond, b.Next())
	assert.Equal(t, 250*time.Millisecond, b.Next())
	assert.Equal(t, 250*time.Millisecond, b.Next())
	assert.Equal(t, 4, b.Steps())

	b.Reset()
	assert.Equal(t, 0, b.Steps())
	assert.Equal(t, 100*time.Millisecond, b.Next())

	fixed := Backoff{Initial: 50 * time.Millisecond}
	assert.Equal(t, 50*time.Millisecond, fixed.Next())
	assert.Equal(t, 50*time.Millisecond, fixed.Next())
}

func TestUntil_Succeeds(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	calls := 0
	res, err := Await(context.Background(), func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	}, 100*time.Millisecond, 500*time.Millisecond, time.Second, clock)

	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 300*time.Millisecond, res.Elapsed)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, clock.Sleeps())
}

func TestUntil_FirstEvaluationIsImmediate(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	res, err := Await(context.Background(), func(context.Context) (bool, error) {
		return true, nil
	}, 100*time.Millisecond, 0, time.Second, clock)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, clock.Sleeps())
}

func TestUntil_CeilingExceeded(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	res, err := Await(context.Background(), func(context.Context) (bool, error) {
		return false, nil
	}, 100*time.Millisecond, 500*time.Millisecond, time.Second, clock)

	require.ErrorIs(t, err, ErrCeilingExceeded)
	assert.Equal(t, 5, res.Attempts)
	assert.Equal(t, time.Second, res.Elapsed)
	// the last sleep is clipped to the time left before the ceiling
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		400 * time.Millisecond,
	}, clock.Sleeps())
}

func TestUntil_ConditionError(t *testing.T) {
	boom := errors.New("boom")
	res, err := Await(context.Background(), func(context.Context) (bool, error) {
		return false, boom
	}, 100*time.Millisecond, 0, time.Second, NewFakeClock(time.Unix(0, 0)))

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, res.Attempts)
}

func TestUntil_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Await(ctx, func(context.Context) (bool, error) {
		calls++
		cancel()
		return false, nil
	}, 100*time.Millisecond, 0, time.Second, NewFakeClock(time.Unix(0, 0)))

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestUntil_RequiresPositiveInterval(t *testing.T) {
	_, err := Until(context.Background(), func(context.Context) (bool, error) {
		return true, nil
	}, Options{Ceiling: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll interval must be positive")
}

func TestFakeClock(t *testing.T) {
	start := time.Unix(100, 0)
	clock := NewFakeClock(start)
	Hold(clock, 2*time.Second)
	clock.Advance(time.Second)
	Hold(clock, 0)

	assert.Equal(t, start.Add(3*time.Second), clock.Now())
	assert.Equal(t, []time.Duration{2 * time.Second, 0}, clock.Sleeps())
}

func TestSystemClock_Sleep(t *testing.T) {
	start := time.Now()
	SystemClock.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	SystemClock.Sleep(-time.Second)
}
