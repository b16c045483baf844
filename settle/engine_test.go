package settle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/ui-acceptor/page"
	"github.com/ethereum-optimism/infra/ui-acceptor/page/pagetest"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
	"github.com/ethereum-optimism/infra/ui-acceptor/wait"
)

const debounce = 300 * time.Millisecond

func newTestEngine(t *testing.T, transform pagetest.Transform) (*Engine, *pagetest.FakePage, *wait.FakeClock) {
	t.Helper()
	clock := wait.NewFakeClock(time.Unix(1_700_000_000, 0))
	fake := pagetest.New(clock, transform, debounce)
	engine, err := NewEngine(fake, Config{
		Timings: types.DefaultTimings(),
		Clock:   clock,
		Log:     log.New(),
	})
	require.NoError(t, err)
	return engine, fake, clock
}

type recorder struct {
	states []types.CaseState
}

func (r *recorder) Enter(s types.CaseState) {
	r.states = append(r.states, s)
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(nil, Config{Timings: types.DefaultTimings()})
	require.Error(t, err)

	bad := types.DefaultTimings()
	bad.PollInterval = 0
	_, err = NewEngine(pagetest.New(nil, pagetest.Upper, 0), Config{Timings: bad})
	require.Error(t, err)
}

func TestPerformTranslation_Batch(t *testing.T) {
	engine, fake, clock := newTestEngine(t, pagetest.Table(map[string]string{
		"mama gedhara yanavaa": "මම ගෙදර යනවා",
	}))
	rec := &recorder{}

	res, err := engine.PerformTranslation(context.Background(), "mama gedhara yanavaa", TypeBatch, rec)
	require.NoError(t, err)

	assert.Equal(t, "මම ගෙදර යනවා", res.Observed)
	assert.Equal(t, debounce, res.SettleLatency)
	assert.Equal(t, []types.CaseState{
		types.StateClearing,
		types.StateTyping,
		types.StateWaitingForSettle,
		types.StateStabilizing,
		types.StateReading,
	}, rec.states)
	assert.Equal(t, []string{"clear", "set mama gedhara yanavaa", "read", "read", "read", "read"}, fake.Ops())

	sleeps := clock.Sleeps()
	require.NotEmpty(t, sleeps)
	assert.Equal(t, time.Second, sleeps[0], "first hold is the after-clear interval")
	assert.Equal(t, 3*time.Second, sleeps[len(sleeps)-1], "last hold is the quiet period")
}

func TestPerformTranslation_PreservesLineBreaks(t *testing.T) {
	engine, fake, _ := newTestEngine(t, func(string) string {
		return "පළමු පේළිය\nදෙවන පේළිය"
	})
	fake.Decorate = pagetest.Padded

	res, err := engine.PerformTranslation(context.Background(), "palamu peLiya\ndhevana peLiya", TypeBatch, nil)
	require.NoError(t, err)
	assert.Equal(t, "පළමු පේළිය\nදෙවන පේළිය", res.Observed)
}

func TestPerformTranslation_Progressive(t *testing.T) {
	engine, fake, clock := newTestEngine(t, pagetest.Upper)

	res, err := engine.PerformTranslation(context.Background(), "abc", TypeProgressive, nil)
	require.NoError(t, err)
	assert.Equal(t, "ABC", res.Observed)
	assert.Equal(t, "abc", fake.Value())

	perChar := 0
	for _, d := range clock.Sleeps() {
		if d == 150*time.Millisecond {
			perChar++
		}
	}
	assert.Equal(t, 3, perChar)
}

func TestPerformTranslation_SettleTimeout(t *testing.T) {
	engine, fake, _ := newTestEngine(t, pagetest.Upper)
	fake.Stick("never")

	res, err := engine.PerformTranslation(context.Background(), "never", TypeBatch, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSettleTimeout))
	assert.True(t, errors.Is(err, wait.ErrCeilingExceeded))
	assert.Empty(t, res.Observed)

	var timeout *SettleTimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, 10*time.Second, timeout.Ceiling)
	assert.Greater(t, timeout.Attempts, 1)
}

func TestPerformTranslation_OutputMountedLate(t *testing.T) {
	engine, fake, clock := newTestEngine(t, pagetest.Upper)
	// mounted one second into the settle poll (after the one second clear hold)
	fake.OutputMountedAt = clock.Now().Add(2 * time.Second)

	res, err := engine.PerformTranslation(context.Background(), "abc", TypeBatch, nil)
	require.NoError(t, err)
	assert.Equal(t, "ABC", res.Observed)
	assert.Equal(t, time.Second, res.SettleLatency)
}

func TestPerformTranslation_TransientReadError(t *testing.T) {
	engine, fake, _ := newTestEngine(t, pagetest.Upper)
	fake.FailReads(errors.New("execution context was destroyed"))

	res, err := engine.PerformTranslation(context.Background(), "abc", TypeBatch, nil)
	require.NoError(t, err)
	assert.Equal(t, "ABC", res.Observed)
	assert.Equal(t, debounce, res.SettleLatency)
}

func TestPerformTranslation_ReadsKeepFailing(t *testing.T) {
	engine, fake, _ := newTestEngine(t, pagetest.Upper)
	errs := make([]error, 100)
	for i := range errs {
		errs[i] = errors.New("execution context was destroyed")
	}
	fake.FailReads(errs...)

	_, err := engine.PerformTranslation(context.Background(), "abc", TypeBatch, nil)
	require.ErrorIs(t, err, ErrSettleTimeout)
	assert.Contains(t, err.Error(), "last poll error: reading output surface: execution context was destroyed")

	var timeout *SettleTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.True(t, timeout.Located)
	assert.False(t, timeout.SurfaceMissing())
	assert.Equal(t, 10*time.Second, timeout.Ceiling)
}

func TestPerformTranslation_OutputNeverMounted(t *testing.T) {
	engine, fake, _ := newTestEngine(t, pagetest.Upper)
	fake.OutputMissing = true

	_, err := engine.PerformTranslation(context.Background(), "abc", TypeBatch, nil)
	require.ErrorIs(t, err, ErrSettleTimeout)
	assert.ErrorIs(t, err, page.ErrAdapterUnavailable)

	var timeout *SettleTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.False(t, timeout.Located)
	assert.True(t, timeout.SurfaceMissing())
	assert.Greater(t, timeout.Attempts, 1, "a missing surface is polled until the ceiling")
}

func TestPerformTranslation_PlaceholderIsNotRendered(t *testing.T) {
	clock := wait.NewFakeClock(time.Unix(0, 0))
	fake := pagetest.New(clock, func(string) string { return "Translation appears here" }, debounce)
	engine, err := NewEngine(fake, Config{
		Timings:     types.DefaultTimings(),
		Placeholder: "Translation appears here",
		Clock:       clock,
		Log:         log.New(),
	})
	require.NoError(t, err)

	_, err = engine.PerformTranslation(context.Background(), "x", TypeBatch, nil)
	assert.ErrorIs(t, err, ErrSettleTimeout)
}

func TestPerformTranslation_AdapterUnavailable(t *testing.T) {
	engine, fake, _ := newTestEngine(t, pagetest.Upper)
	fake.InputMissing = true

	_, err := engine.PerformTranslation(context.Background(), "x", TypeBatch, nil)
	assert.ErrorIs(t, err, page.ErrAdapterUnavailable)

	fake.InputMissing = false
	fake.OutputMissing = true
	_, err = engine.PerformTranslation(context.Background(), "x", TypeBatch, nil)
	assert.ErrorIs(t, err, page.ErrAdapterUnavailable)
}

func TestPerformTranslation_ReplacesPreviousOutput(t *testing.T) {
	engine, _, _ := newTestEngine(t, pagetest.Upper)

	first, err := engine.PerformTranslation(context.Background(), "first", TypeBatch, nil)
	require.NoError(t, err)
	second, err := engine.PerformTranslation(context.Background(), "second", TypeBatch, nil)
	require.NoError(t, err)

	assert.Equal(t, "FIRST", first.Observed)
	assert.Equal(t, "SECOND", second.Observed)
}

func TestPerformTranslation_Idempotent(t *testing.T) {
	engine, _, _ := newTestEngine(t, pagetest.Upper)

	var observed []string
	for i := 0; i < 3; i++ {
		res, err := engine.PerformTranslation(context.Background(), "same input", TypeBatch, nil)
		require.NoError(t, err)
		observed = append(observed, res.Observed)
	}
	assert.Equal(t, []string{"SAME INPUT", "SAME INPUT", "SAME INPUT"}, observed)
}

func TestPerformTranslation_CancelledContext(t *testing.T) {
	engine, fake, _ := newTestEngine(t, pagetest.Upper)
	fake.Stick("slow")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.PerformTranslation(ctx, "slow", TypeProgressive, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRead_TrimsOnlyOuterWhitespace(t *testing.T) {
	engine, fake, clock := newTestEngine(t, func(string) string { return "a  b\n\nc" })
	fake.Decorate = pagetest.Padded

	ctrl, err := fake.InputControl(context.Background())
	require.NoError(t, err)
	require.NoError(t, ctrl.SetValue(context.Background(), "x"))
	clock.Advance(debounce)

	text, err := engine.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a  b\n\nc", text)
}

func TestTypeMode_String(t *testing.T) {
	assert.Equal(t, "batch", TypeBatch.String())
	assert.Equal(t, "progressive", TypeProgressive.String())
}
