package page

import (
	"errors"
	"fmt"
)

// ErrAdapterUnavailable matches every *UnavailableError.
var ErrAdapterUnavailable = errors.New("page control unavailable")

// NavigationError reports that the target could not be loaded. It is fatal
// to the whole run.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *NavigationError) Unwrap() error {
	return e.Err
}

// NewNavigationError creates a new NavigationError
func NewNavigationError(url string, err error) *NavigationError {
	return &NavigationError{URL: url, Err: err}
}

// IsNavigationError checks if the error is or wraps a NavigationError
func IsNavigationError(err error) bool {
	var navErr *NavigationError
	return err != nil && errors.As(err, &navErr)
}

// UnavailableError reports that a required control could not be found.
type UnavailableError struct {
	Control  string
	Selector string
	Err      error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s not found (selector %q)", e.Control, e.Selector)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAdapterUnavailable) hold.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrAdapterUnavailable
}

// NewUnavailableError creates a new UnavailableError
func NewUnavailableError(control, selector string, err error) *UnavailableError {
	return &UnavailableError{Control: control, Selector: selector, Err: err}
}

// InputDescription returns a human readable selector for the input control.
func (s Selectors) InputDescription() string {
	if s.InputCSS != "" {
		return s.InputCSS
	}
	return fmt.Sprintf("textbox[name=%q]", s.InputName)
}
