// Package page defines the page automation capability the harness consumes.
// Browser drivers live in sub-packages and implement these interfaces; the
// harness itself never talks to a browser directly.
package page

import (
	"context"
	"time"
)

// Default selectors of the reference translator UI.
const (
	DefaultInputName = "Input Your Singlish Text Here."
	DefaultOutputCSS = "div.w-full.h-80.p-3.rounded-lg.ring-1.ring-slate-300.whitespace-pre-wrap"
)

// Selectors locates the input control and the output surface.
type Selectors struct {
	// InputName is the accessible name of the input textbox.
	InputName string `yaml:"inputName" toml:"input_name"`
	// InputCSS, when set, takes precedence over InputName.
	InputCSS string `yaml:"inputCss" toml:"input_css"`
	// OutputCSS matches output surface candidates. Candidates that are, or
	// contain, the input control are excluded.
	OutputCSS string `yaml:"outputCss" toml:"output_css"`
	// Placeholder is text the output shows while empty.
	Placeholder string `yaml:"placeholder" toml:"placeholder"`
}

// DefaultSelectors returns the selectors of the reference UI.
func DefaultSelectors() Selectors {
	return Selectors{
		InputName: DefaultInputName,
		OutputCSS: DefaultOutputCSS,
	}
}

// Merge fills empty fields of s from defaults.
func (s Selectors) Merge(defaults Selectors) Selectors {
	if s.InputName == "" && s.InputCSS == "" {
		s.InputName = defaults.InputName
		s.InputCSS = defaults.InputCSS
	}
	if s.OutputCSS == "" {
		s.OutputCSS = defaults.OutputCSS
	}
	if s.Placeholder == "" {
		s.Placeholder = defaults.Placeholder
	}
	return s
}

// Page is one live browser tab bound to the target UI.
type Page interface {
	// Navigate loads url. Failures are reported as *NavigationError.
	Navigate(ctx context.Context, url string) error
	// WaitForLoad is a best-effort readiness signal (network idle / load event).
	WaitForLoad(ctx context.Context) error
	// InputControl locates the input control.
	InputControl(ctx context.Context) (Control, error)
	// OutputSurface locates the output surface, excluding the input control.
	OutputSurface(ctx context.Context) (Surface, error)
	// Close releases the tab and any browser it owns.
	Close() error
}

// Control is the text input of the target UI.
type Control interface {
	Clear(ctx context.Context) error
	// SetValue writes text in one atomic update.
	SetValue(ctx context.Context, text string) error
	// TypeSequentially inserts text one character at a time.
	TypeSequentially(ctx context.Context, text string, perCharDelay time.Duration) error
}

// Surface is the rendered output of the target UI.
type Surface interface {
	// ReadText returns the raw text content of the surface.
	ReadText(ctx context.Context) (string, error)
}

// Factory opens a new Page. Each worker session owns exactly one.
type Factory func(ctx context.Context) (Page, error)
