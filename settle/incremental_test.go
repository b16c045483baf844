package settle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/ui-acceptor/page/pagetest"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
	"github.com/ethereum-optimism/infra/ui-acceptor/wait"
)

func incrementalCase(input, partial, expected string) types.IncrementalTestCase {
	return types.IncrementalTestCase{
		TestCase: types.TestCase{
			ID:     "Pos_UI_T",
			Name:   "progressive rendering",
			Input:  input,
			Length: types.LengthShort,
			Suite:  types.SuiteUI,
		},
		PartialInput:       partial,
		ExpectedFullOutput: expected,
	}
}

func TestPerformIncremental_LiteralPrefix(t *testing.T) {
	engine, fake, _ := newTestEngine(t, pagetest.Upper)
	rec := &recorder{}

	res, err := engine.PerformIncremental(context.Background(), incrementalCase("mama gedhara", "mama ", "MAMA GEDHARA"), rec)
	require.NoError(t, err)

	assert.Equal(t, "MAMA", res.PartialObserved)
	assert.Equal(t, "MAMA GEDHARA", res.Observed)
	assert.Equal(t, "mama gedhara", fake.Value(), "suffix continues where the partial stopped")
	assert.Equal(t, []types.CaseState{
		types.StateClearing,
		types.StateTyping,
		types.StateObservingPartial,
		types.StateTyping,
		types.StateWaitingForSettle,
		types.StateStabilizing,
		types.StateReading,
	}, rec.states)
	assert.Contains(t, fake.Ops(), "type mama ")
	assert.Contains(t, fake.Ops(), "type gedhara")
}

func TestPerformIncremental_PartialNotRendered(t *testing.T) {
	engine, fake, _ := newTestEngine(t, pagetest.Upper)
	fake.Stick("mama ")

	res, err := engine.PerformIncremental(context.Background(), incrementalCase("mama gedhara", "mama ", "MAMA GEDHARA"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPartialRender))
	assert.Empty(t, res.Observed)
	assert.Equal(t, "mama ", fake.Value(), "suffix is not typed after a missing partial render")
}

func TestPerformIncremental_NonLiteralPrefix(t *testing.T) {
	engine, fake, _ := newTestEngine(t, pagetest.Upper)

	tc := incrementalCase("mama gedhara", "මම", "ignored")
	res, err := engine.PerformIncremental(context.Background(), tc, nil)
	require.NoError(t, err)

	assert.Equal(t, "මමma gedhara", fake.Value())
	assert.Equal(t, "මමMA GEDHARA", res.Observed)
}

func TestPerformIncremental_PlaceholderIsNotAPartialRender(t *testing.T) {
	clock := wait.NewFakeClock(time.Unix(0, 0))
	fake := pagetest.New(clock, pagetest.Table(map[string]string{"mama ": "Output"}), debounce)
	engine, err := NewEngine(fake, Config{
		Timings:     types.DefaultTimings(),
		Placeholder: "Output",
		Clock:       clock,
		Log:         log.New(),
	})
	require.NoError(t, err)

	res, err := engine.PerformIncremental(context.Background(), incrementalCase("mama gedhara", "mama ", "MAMA GEDHARA"), nil)
	require.ErrorIs(t, err, ErrPartialRender)
	assert.Equal(t, "Output", res.PartialObserved)

	var partialErr *PartialRenderError
	require.ErrorAs(t, err, &partialErr)
	assert.Equal(t, "Output", partialErr.Observed)
}
