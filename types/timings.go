package types

import (
	"errors"
	"fmt"
	"time"
)

// Timings is the table of fixed delays and polling bounds used by the
// synchronization engine and the scenario runner. It is built once at
// start-up and passed by value.
type Timings struct {
	PageLoad        time.Duration // hold after navigation
	AfterClear      time.Duration // T_clear
	Translation     time.Duration // T_quiet
	BetweenTests    time.Duration // T_cooldown
	PollInterval    time.Duration // first settle poll step
	PollMaxInterval time.Duration // backoff cap
	PollCeiling     time.Duration // T_poll_ceiling
	PartialObserve  time.Duration // T_partial_observe
	PerCharDelay    time.Duration // progressive typing delay
}

// DefaultTimings returns delays tuned for the public translator UI.
func DefaultTimings() Timings {
	return Timings{
		PageLoad:        2 * time.Second,
		AfterClear:      1 * time.Second,
		Translation:     3 * time.Second,
		BetweenTests:    2 * time.Second,
		PollInterval:    100 * time.Millisecond,
		PollMaxInterval: 500 * time.Millisecond,
		PollCeiling:     10 * time.Second,
		PartialObserve:  1500 * time.Millisecond,
		PerCharDelay:    150 * time.Millisecond,
	}
}

// TimingOverrides holds explicitly configured timings. A nil field is
// unset, so an explicit zero such as "betweenTests: 0s" survives.
type TimingOverrides struct {
	PageLoad        *time.Duration `yaml:"pageLoad" toml:"page_load"`
	AfterClear      *time.Duration `yaml:"afterClear" toml:"after_clear"`
	Translation     *time.Duration `yaml:"translation" toml:"translation"`
	BetweenTests    *time.Duration `yaml:"betweenTests" toml:"between_tests"`
	PollInterval    *time.Duration `yaml:"pollInterval" toml:"poll_interval"`
	PollMaxInterval *time.Duration `yaml:"pollMaxInterval" toml:"poll_max_interval"`
	PollCeiling     *time.Duration `yaml:"pollCeiling" toml:"poll_ceiling"`
	PartialObserve  *time.Duration `yaml:"partialObserve" toml:"partial_observe"`
	PerCharDelay    *time.Duration `yaml:"perCharDelay" toml:"per_char_delay"`
}

// Apply returns base with every set field of o written over it.
func (o TimingOverrides) Apply(base Timings) Timings {
	set := func(dst *time.Duration, v *time.Duration) {
		if v != nil {
			*dst = *v
		}
	}
	set(&base.PageLoad, o.PageLoad)
	set(&base.AfterClear, o.AfterClear)
	set(&base.Translation, o.Translation)
	set(&base.BetweenTests, o.BetweenTests)
	set(&base.PollInterval, o.PollInterval)
	set(&base.PollMaxInterval, o.PollMaxInterval)
	set(&base.PollCeiling, o.PollCeiling)
	set(&base.PartialObserve, o.PartialObserve)
	set(&base.PerCharDelay, o.PerCharDelay)
	return base
}

// Validate checks that the table is internally consistent.
func (t Timings) Validate() error {
	var errs []error
	for name, d := range map[string]time.Duration{
		"pageLoad":       t.PageLoad,
		"afterClear":     t.AfterClear,
		"translation":    t.Translation,
		"betweenTests":   t.BetweenTests,
		"partialObserve": t.PartialObserve,
		"perCharDelay":   t.PerCharDelay,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, d))
		}
	}
	if t.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("pollInterval must be positive, got %s", t.PollInterval))
	}
	if t.PollMaxInterval < t.PollInterval {
		errs = append(errs, fmt.Errorf("pollMaxInterval (%s) must be at least pollInterval (%s)", t.PollMaxInterval, t.PollInterval))
	}
	if t.PollCeiling < t.PollInterval {
		errs = append(errs, fmt.Errorf("pollCeiling (%s) must be at least pollInterval (%s)", t.PollCeiling, t.PollInterval))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid timings: %w", errors.Join(errs...))
}
