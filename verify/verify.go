// Package verify compares a settled observation against a case oracle.
// Comparison is exact: no trimming beyond the read phase, no case folding,
// no Unicode normalization.
package verify

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

// Compare produces the verdict for one case execution.
func Compare(c types.Case, observed string, latency time.Duration) types.Verdict {
	base := c.Base()
	expected := c.Expected()
	v := types.Verdict{
		CaseID:   base.ID,
		Name:     base.Name,
		Suite:    base.Suite,
		Category: base.Category,
		Observed: observed,
		Expected: expected,
		Latency:  latency,
		Pass:     observed == expected,
	}
	if !v.Pass {
		v.Kind = types.ErrorKindMismatch
		v.Diagnostic = Diagnose(observed, expected)
	}
	return v
}

// Diagnose describes how observed differs from expected. It returns an empty
// string when the two are equal.
func Diagnose(observed, expected string) string {
	if observed == expected {
		return ""
	}

	var b strings.Builder
	idx, got, want := firstDifference(observed, expected)
	fmt.Fprintf(&b, "first difference at rune %d: observed %s, expected %s\n", idx, got, want)
	fmt.Fprintf(&b, "length: observed %d runes, expected %d runes\n",
		utf8.RuneCountInString(observed), utf8.RuneCountInString(expected))

	switch {
	case norm.NFC.String(observed) == norm.NFC.String(expected):
		b.WriteString("note: strings are equal after NFC normalization\n")
	case strings.TrimSpace(observed) == strings.TrimSpace(expected):
		b.WriteString("note: strings differ only in leading or trailing whitespace\n")
	case strings.Join(strings.Fields(observed), " ") == strings.Join(strings.Fields(expected), " "):
		b.WriteString("note: strings differ only in interior whitespace\n")
	}

	if strings.Contains(observed, "\n") || strings.Contains(expected, "\n") {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(expected),
			B:        difflib.SplitLines(observed),
			FromFile: "expected",
			ToFile:   "observed",
			Context:  1,
		})
		if err == nil && diff != "" {
			b.WriteString(diff)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// firstDifference returns the index of the first differing rune and a quoted
// rendering of the rune on each side (or <end> when that side is exhausted).
func firstDifference(a, b string) (int, string, string) {
	ra, rb := []rune(a), []rune(b)
	i := 0
	for i < len(ra) && i < len(rb) && ra[i] == rb[i] {
		i++
	}
	return i, describeRune(ra, i), describeRune(rb, i)
}

func describeRune(rs []rune, i int) string {
	if i >= len(rs) {
		return "<end>"
	}
	return fmt.Sprintf("%q (%U)", rs[i], rs[i])
}
