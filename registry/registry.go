// Package registry holds the immutable oracle table of translation cases.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

// Registry manages the case table and the selection applied to it
type Registry struct {
	config  Config
	version string
	cases   []types.Case
	byID    map[string]int
	mu      sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log log.Logger
	// CasesFile replaces the built-in table when set.
	CasesFile string
	// Suites restricts the selection to the named suites.
	Suites []types.Suite
	// CaseIDs restricts the selection to the named cases.
	CaseIDs []string
}

// BuiltinVersion is the version reported for the built-in table.
const BuiltinVersion = "v1.0.0"

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{config: cfg}

	var (
		file *CaseFile
		err  error
	)
	if cfg.CasesFile != "" {
		file, err = LoadCaseFile(cfg.CasesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load cases: %w", err)
		}
	} else {
		file = Builtin()
	}

	all := file.Cases()
	if err := validateCases(all); err != nil {
		return nil, fmt.Errorf("invalid case table: %w", err)
	}
	for _, c := range all {
		if ic, ok := c.Incremental(); ok && !ic.IsLiteralPrefix() {
			cfg.Log.Warn("Partial input is not a literal prefix of the input",
				"case", ic.ID, "partial", ic.PartialInput)
		}
	}

	selected, err := selectCases(all, cfg.Suites, cfg.CaseIDs)
	if err != nil {
		return nil, err
	}

	r.version = file.Version
	r.cases = selected
	r.byID = make(map[string]int, len(selected))
	for i, c := range selected {
		r.byID[c.Base().ID] = i
	}

	cfg.Log.Debug("Registry loaded", "version", r.version, "len(cases)", len(r.cases), "source", r.Source())
	return r, nil
}

// Source describes where the cases came from.
func (r *Registry) Source() string {
	if r.config.CasesFile != "" {
		return r.config.CasesFile
	}
	return "builtin"
}

// Version returns the version of the loaded case table.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Cases returns the selected cases in execution order: suites in fixed order,
// table order within a suite.
func (r *Registry) Cases() []types.Case {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.cases)
}

// Len returns the number of selected cases.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cases)
}

// CasesBySuite returns the selected cases of one suite.
func (r *Registry) CasesBySuite(suite types.Suite) []types.Case {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []types.Case
	for _, c := range r.cases {
		if c.Base().Suite == suite {
			out = append(out, c)
		}
	}
	return out
}

// Suites returns the suites that have at least one selected case, in order.
func (r *Registry) Suites() []types.Suite {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []types.Suite
	for _, s := range types.Suites {
		for _, c := range r.cases {
			if c.Base().Suite == s {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// GetCase looks up a selected case by ID.
func (r *Registry) GetCase(id string) (types.Case, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return r.cases[i], true
}

// IndexOf returns the execution position of a selected case, or -1.
func (r *Registry) IndexOf(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.byID[id]; ok {
		return i
	}
	return -1
}

func validateCases(cases []types.Case) error {
	var errs []error
	seen := make(map[string]bool, len(cases))
	for _, c := range cases {
		var err error
		if ic, ok := c.Incremental(); ok {
			err = ic.Validate()
		} else {
			err = c.Base().Validate()
		}
		if err != nil {
			errs = append(errs, err)
		}
		id := c.Base().ID
		if id != "" && seen[id] {
			errs = append(errs, fmt.Errorf("duplicate case id %q", id))
		}
		seen[id] = true
	}
	return errors.Join(errs...)
}

func selectCases(all []types.Case, suites []types.Suite, ids []string) ([]types.Case, error) {
	for _, s := range suites {
		if !s.IsValid() {
			return nil, fmt.Errorf("unknown suite %q", s)
		}
	}
	known := make(map[string]bool, len(all))
	for _, c := range all {
		known[c.Base().ID] = true
	}
	var unknown []string
	for _, id := range ids {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown case ids: %s", strings.Join(unknown, ", "))
	}

	out := make([]types.Case, 0, len(all))
	for _, c := range all {
		base := c.Base()
		if len(suites) > 0 && !slices.Contains(suites, base.Suite) {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, base.ID) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, errors.New("selection matches no cases")
	}
	return out, nil
}
