package settle

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum-optimism/infra/ui-acceptor/page"
)

// ErrSettleTimeout matches every *SettleTimeoutError.
var ErrSettleTimeout = errors.New("output did not settle")

// SettleTimeoutError reports that the output surface never showed a
// rendered value before the poll ceiling. LastErr is the most recent locate
// or read failure seen while polling, if any.
type SettleTimeoutError struct {
	Ceiling  time.Duration
	Attempts int
	LastText string
	// Located is false when the output surface could not be found on any poll.
	Located bool
	LastErr error
	Err     error
}

func (e *SettleTimeoutError) Error() string {
	msg := fmt.Sprintf("output did not settle within %s (%d polls, last text %q)", e.Ceiling, e.Attempts, e.LastText)
	if e.LastErr != nil {
		msg += ": last poll error: " + e.LastErr.Error()
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *SettleTimeoutError) Unwrap() []error {
	if e.LastErr == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.LastErr}
}

// Is makes errors.Is(err, ErrSettleTimeout) hold.
func (e *SettleTimeoutError) Is(target error) bool {
	return target == ErrSettleTimeout
}

// SurfaceMissing reports whether the poll ended without the output surface
// ever being located.
func (e *SettleTimeoutError) SurfaceMissing() bool {
	return !e.Located && errors.Is(e.LastErr, page.ErrAdapterUnavailable)
}

// ErrPartialRender matches every *PartialRenderError.
var ErrPartialRender = errors.New("no partial output rendered")

// PartialRenderError reports that nothing was rendered after typing only the
// partial input in incremental mode.
type PartialRenderError struct {
	PartialInput string
	Observed     string
	Window       time.Duration
}

func (e *PartialRenderError) Error() string {
	return fmt.Sprintf("no output rendered %s after typing partial input %q", e.Window, e.PartialInput)
}

// Is makes errors.Is(err, ErrPartialRender) hold.
func (e *PartialRenderError) Is(target error) bool {
	return target == ErrPartialRender
}
