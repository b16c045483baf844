package acceptor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalScheduler_RunOnce(t *testing.T) {
	var calls atomic.Int32
	scheduler := NewIntervalScheduler(10*time.Millisecond, true, log.New())
	err := scheduler.Start(context.Background(), func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, scheduler.Stopped())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "run-once must not repeat")
	assert.Equal(t, int64(1), scheduler.Runs())
}

func TestIntervalScheduler_RunOnceError(t *testing.T) {
	boom := errors.New("boom")
	scheduler := NewIntervalScheduler(0, true, log.New())
	err := scheduler.Start(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), scheduler.ConsecutiveFailures())
}

func TestIntervalScheduler_Periodic(t *testing.T) {
	callChan := make(chan struct{}, 10)
	scheduler := NewIntervalScheduler(10*time.Millisecond, false, log.New())
	err := scheduler.Start(context.Background(), func(context.Context) error {
		select {
		case callChan <- struct{}{}:
		default:
		}
		return nil
	})
	require.NoError(t, err)
	assert.False(t, scheduler.Stopped())

	for i := 0; i < 3; i++ {
		select {
		case <-callChan:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for run %d", i+1)
		}
	}

	require.NoError(t, scheduler.Stop())
	assert.True(t, scheduler.Stopped())
	require.NoError(t, scheduler.WaitForShutdown(context.Background()))
	assert.GreaterOrEqual(t, scheduler.Runs(), int64(3))

	// a second Stop is a no-op
	require.NoError(t, scheduler.Stop())
}

func TestIntervalScheduler_StopCancelsRun(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	var calls atomic.Int32
	scheduler := NewIntervalScheduler(5*time.Millisecond, false, log.New())
	err := scheduler.Start(context.Background(), func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			return nil
		}
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("periodic run did not start")
	}
	require.NoError(t, scheduler.Stop())

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-progress run was not cancelled")
	}
	require.NoError(t, scheduler.WaitForShutdown(context.Background()))
}

func TestIntervalScheduler_Errors(t *testing.T) {
	t.Run("no run function", func(t *testing.T) {
		scheduler := NewIntervalScheduler(time.Second, true, log.New())
		assert.Error(t, scheduler.Start(context.Background(), nil))
	})

	t.Run("continuous mode needs an interval", func(t *testing.T) {
		scheduler := NewIntervalScheduler(0, false, log.New())
		err := scheduler.Start(context.Background(), func(context.Context) error { return nil })
		require.ErrorContains(t, err, "run interval must be positive")
	})

	t.Run("first run error is returned", func(t *testing.T) {
		boom := errors.New("boom")
		scheduler := NewIntervalScheduler(time.Second, false, log.New())
		err := scheduler.Start(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.True(t, scheduler.Stopped())
	})

	t.Run("double start", func(t *testing.T) {
		scheduler := NewIntervalScheduler(time.Second, false, log.New())
		noop := func(context.Context) error { return nil }
		require.NoError(t, scheduler.Start(context.Background(), noop))
		require.ErrorContains(t, scheduler.Start(context.Background(), noop), "already started")
		require.NoError(t, scheduler.Stop())
		require.NoError(t, scheduler.WaitForShutdown(context.Background()))
	})

	t.Run("periodic errors keep the loop alive", func(t *testing.T) {
		var calls atomic.Int32
		scheduler := NewIntervalScheduler(5*time.Millisecond, false, log.New())
		ctx, cancel := context.WithCancel(context.Background())
		err := scheduler.Start(ctx, func(context.Context) error {
			if calls.Add(1) > 1 {
				return errors.New("later failure")
			}
			return nil
		})
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			return scheduler.ConsecutiveFailures() >= failureStreakWarning
		}, time.Second, 5*time.Millisecond)
		cancel()
		require.NoError(t, scheduler.WaitForShutdown(context.Background()))
		assert.True(t, scheduler.Stopped())
	})
}
