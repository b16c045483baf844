// Package types contains shared types used across the ui-acceptor harness
package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Suite partitions the registry into groups of related cases.
type Suite string

const (
	SuitePositive Suite = "positive"
	SuiteNegative Suite = "negative"
	SuiteUI       Suite = "ui"
)

// Suites lists every suite in execution order.
var Suites = []Suite{SuitePositive, SuiteNegative, SuiteUI}

// String implements the Stringer interface for Suite
func (s Suite) String() string {
	return string(s)
}

// IsValid reports whether s is a known suite.
func (s Suite) IsValid() bool {
	for _, known := range Suites {
		if s == known {
			return true
		}
	}
	return false
}

// Category classifies a case. It is descriptive metadata only.
type Category string

const (
	CategoryFunctionalPositive Category = "FunctionalPositive"
	CategoryTypographical      Category = "Typographical"
	CategoryFormatting         Category = "Formatting"
	CategoryLanguageHandling   Category = "LanguageHandling"
	CategoryMixedScript        Category = "MixedScript"
	CategoryUsability          Category = "Usability"
)

// LengthClass is the coarse input length bucket of a case.
type LengthClass string

const (
	LengthShort  LengthClass = "S"
	LengthMedium LengthClass = "M"
	LengthLong   LengthClass = "L"
)

// IsValid reports whether l is one of S, M or L.
func (l LengthClass) IsValid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

// TestCase is a single oracle entry. The expected output is the only correctness oracle.
type TestCase struct {
	ID             string      `yaml:"id" json:"id"`
	Name           string      `yaml:"name" json:"name"`
	Input          string      `yaml:"input" json:"input"`
	ExpectedOutput string      `yaml:"expected" json:"expected"`
	Category       Category    `yaml:"category" json:"category"`
	CategoryLabel  string      `yaml:"category_label,omitempty" json:"category_label,omitempty"`
	GrammarTag     string      `yaml:"grammar,omitempty" json:"grammar,omitempty"`
	Length         LengthClass `yaml:"length" json:"length"`
	Suite          Suite       `yaml:"-" json:"-"`
}

// DisplayName returns "<id> - <name>", the label used in reports.
func (tc TestCase) DisplayName() string {
	if tc.Name == "" {
		return tc.ID
	}
	return fmt.Sprintf("%s - %s", tc.ID, tc.Name)
}

// Validate checks the structural invariants of a case.
func (tc TestCase) Validate() error {
	var errs []error
	if strings.TrimSpace(tc.ID) == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if tc.Input == "" {
		errs = append(errs, fmt.Errorf("case %q: input must not be empty", tc.ID))
	}
	if !tc.Length.IsValid() {
		errs = append(errs, fmt.Errorf("case %q: invalid length class %q", tc.ID, tc.Length))
	}
	return errors.Join(errs...)
}

// IncrementalTestCase verifies progressive rendering: PartialInput is typed first,
// then the rest of Input, and the final output must equal ExpectedFullOutput.
type IncrementalTestCase struct {
	TestCase           `yaml:",inline"`
	PartialInput       string `yaml:"partial_input" json:"partial_input"`
	ExpectedFullOutput string `yaml:"expected_full" json:"expected_full"`
}

// Validate checks the incremental invariants on top of the base ones.
func (ic IncrementalTestCase) Validate() error {
	errs := []error{ic.TestCase.Validate()}
	if ic.PartialInput == "" {
		errs = append(errs, fmt.Errorf("case %q: partial input must not be empty", ic.ID))
	} else if utf8.RuneCountInString(ic.PartialInput) >= utf8.RuneCountInString(ic.Input) {
		errs = append(errs, fmt.Errorf("case %q: partial input must be shorter than the full input", ic.ID))
	}
	return errors.Join(errs...)
}

// IsLiteralPrefix reports whether PartialInput is a byte-for-byte prefix of Input.
func (ic IncrementalTestCase) IsLiteralPrefix() bool {
	return strings.HasPrefix(ic.Input, ic.PartialInput)
}

// Suffix returns the second typing stage: Input with the first
// len(PartialInput) characters removed.
func (ic IncrementalTestCase) Suffix() string {
	if ic.IsLiteralPrefix() {
		return ic.Input[len(ic.PartialInput):]
	}
	n := utf8.RuneCountInString(ic.PartialInput)
	for i := range ic.Input {
		if n == 0 {
			return ic.Input[i:]
		}
		n--
	}
	return ""
}

// Expected returns the oracle the final observation is compared against.
func (ic IncrementalTestCase) Expected() string {
	return ic.ExpectedFullOutput
}

// Case is implemented by every runnable registry entry.
type Case interface {
	Base() TestCase
	Expected() string
	Incremental() (IncrementalTestCase, bool)
}

// Base implements Case.
func (tc TestCase) Base() TestCase { return tc }

// Expected implements Case.
func (tc TestCase) Expected() string { return tc.ExpectedOutput }

// Incremental implements Case.
func (tc TestCase) Incremental() (IncrementalTestCase, bool) { return IncrementalTestCase{}, false }

// Incremental implements Case.
func (ic IncrementalTestCase) Incremental() (IncrementalTestCase, bool) { return ic, true }
