package runner

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

// ProgressIndicator interface for UI updates
type ProgressIndicator interface {
	StartRun(totalCases int)
	StartCase(caseID string)
	CompleteCase(verdict *types.Verdict)
	CompleteRun()
}

// noOpProgressIndicator provides a no-op implementation of ProgressIndicator
type noOpProgressIndicator struct{}

// NewNoOpProgressIndicator creates a progress indicator that does nothing
func NewNoOpProgressIndicator() ProgressIndicator {
	return &noOpProgressIndicator{}
}

func (n *noOpProgressIndicator) StartRun(totalCases int)             {}
func (n *noOpProgressIndicator) StartCase(caseID string)             {}
func (n *noOpProgressIndicator) CompleteCase(verdict *types.Verdict) {}
func (n *noOpProgressIndicator) CompleteRun()                        {}

// barProgressIndicator renders a progress bar with running pass/fail counts
type barProgressIndicator struct {
	out    io.Writer
	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	passed int
	failed int
}

// NewBarProgressIndicator creates a progress bar writing to out (stderr if nil)
func NewBarProgressIndicator(out io.Writer) ProgressIndicator {
	if out == nil {
		out = os.Stderr
	}
	return &barProgressIndicator{out: out}
}

func (b *barProgressIndicator) description() string {
	return color.CyanString("Running cases: ") +
		color.GreenString("[passed: %d", b.passed) +
		" | " +
		color.RedString("failed: %d]", b.failed)
}

func (b *barProgressIndicator) StartRun(totalCases int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.passed, b.failed = 0, 0
	out := b.out
	b.bar = progressbar.NewOptions(totalCases,
		progressbar.OptionSetDescription(b.description()),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(out),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (b *barProgressIndicator) StartCase(caseID string) {}

func (b *barProgressIndicator) CompleteCase(verdict *types.Verdict) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	if verdict.Pass {
		b.passed++
	} else {
		b.failed++
	}
	b.bar.Describe(b.description())
	_ = b.bar.Add(1)
}

func (b *barProgressIndicator) CompleteRun() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	b.bar = nil
}
