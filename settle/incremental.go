package settle

import (
	"context"
	"fmt"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
	"github.com/ethereum-optimism/infra/ui-acceptor/wait"
)

// PerformIncremental verifies progressive rendering. The partial input is
// typed character by character and, after the observation window, the output
// must be non-empty and differ from the placeholder. The remaining suffix is
// then typed the same way and the usual settle/stabilize/read sequence
// produces the final observation.
//
// The partial check only asserts presence: intermediate renders are not
// deterministic enough to compare against an oracle.
func (e *Engine) PerformIncremental(ctx context.Context, tc types.IncrementalTestCase, obs Observer) (types.SettleResult, error) {
	if obs == nil {
		obs = noopObserver{}
	}
	ctx, span := e.tracer.Start(ctx, "perform incremental")
	defer span.End()

	if !tc.IsLiteralPrefix() {
		e.log.Warn("Partial input is not a literal prefix of the input, second stage is cut by length",
			"case", tc.ID, "suffix", tc.Suffix())
	}

	obs.Enter(types.StateClearing)
	if err := e.Clear(ctx); err != nil {
		return types.SettleResult{}, err
	}

	obs.Enter(types.StateTyping)
	if err := e.Type(ctx, tc.PartialInput, TypeProgressive); err != nil {
		return types.SettleResult{}, err
	}

	obs.Enter(types.StateObservingPartial)
	wait.Hold(e.clock, e.timings.PartialObserve)
	partial, err := e.Read(ctx)
	if err != nil {
		return types.SettleResult{}, fmt.Errorf("reading partial output: %w", err)
	}
	if !e.rendered(partial) {
		return types.SettleResult{PartialObserved: partial}, &PartialRenderError{
			PartialInput: tc.PartialInput,
			Observed:     partial,
			Window:       e.timings.PartialObserve,
		}
	}
	e.log.Debug("Partial output rendered", "case", tc.ID, "partial", partial)

	obs.Enter(types.StateTyping)
	if err := e.Type(ctx, tc.Suffix(), TypeProgressive); err != nil {
		return types.SettleResult{PartialObserved: partial}, err
	}

	res, err := e.settleAndRead(ctx, obs)
	res.PartialObserved = partial
	return res, err
}
