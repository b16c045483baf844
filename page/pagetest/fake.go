// Package pagetest provides an in-memory page that behaves like a debounced,
// asynchronously rendering translator UI.
package pagetest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum-optimism/infra/ui-acceptor/page"
	"github.com/ethereum-optimism/infra/ui-acceptor/wait"
)

// Transform maps the current input value onto the rendered output.
type Transform func(input string) string

// Table returns a Transform answering from a fixed input -> output table and
// echoing unknown inputs.
func Table(entries map[string]string) Transform {
	return func(input string) string {
		if out, ok := entries[input]; ok {
			return out
		}
		return input
	}
}

// FakePage simulates the target UI. Output for the current value appears
// only once Debounce has elapsed since the last edit; until then the
// previously rendered text stays visible.
type FakePage struct {
	Clock     wait.Clock
	Transform Transform
	Debounce  time.Duration
	// Decorate wraps the rendered text, e.g. to add surrounding whitespace.
	Decorate func(string) string

	NavigateErr     error
	InputMissing    bool
	OutputMissing   bool
	// OutputMountedAt hides the output surface while the clock is before it.
	OutputMountedAt time.Time

	mu       sync.Mutex
	value    string
	lastEdit time.Time
	rendered string
	stuck    map[string]bool
	readErrs []error
	ops      []string
	closed   bool

	active  atomic.Int32
	overlap atomic.Bool
}

var (
	_ page.Page    = (*FakePage)(nil)
	_ page.Control = (*fakeControl)(nil)
	_ page.Surface = (*fakeSurface)(nil)
)

// New returns a FakePage using clock and transform.
func New(clock wait.Clock, transform Transform, debounce time.Duration) *FakePage {
	if clock == nil {
		clock = wait.SystemClock
	}
	return &FakePage{
		Clock:     clock,
		Transform: transform,
		Debounce:  debounce,
		stuck:     make(map[string]bool),
	}
}

// Factory returns a page.Factory handing out p.
func (p *FakePage) Factory() page.Factory {
	return func(context.Context) (page.Page, error) { return p, nil }
}

// Stick makes the UI never render anything for input.
func (p *FakePage) Stick(input string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stuck[input] = true
}

// FailReads makes the next len(errs) output reads fail with errs, in order.
func (p *FakePage) FailReads(errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErrs = append(p.readErrs, errs...)
}

// Ops returns the recorded operation log.
func (p *FakePage) Ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.ops))
	copy(out, p.ops)
	return out
}

// Value returns the current input value.
func (p *FakePage) Value() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Overlapped reports whether two operations were ever in flight at once.
func (p *FakePage) Overlapped() bool {
	return p.overlap.Load()
}

// Closed reports whether Close was called.
func (p *FakePage) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *FakePage) enter(op string) func() {
	if p.active.Add(1) > 1 {
		p.overlap.Store(true)
	}
	p.mu.Lock()
	p.ops = append(p.ops, op)
	p.mu.Unlock()
	return func() { p.active.Add(-1) }
}

func (p *FakePage) Navigate(_ context.Context, url string) error {
	defer p.enter("navigate " + url)()
	if p.NavigateErr != nil {
		return page.NewNavigationError(url, p.NavigateErr)
	}
	p.edit("")
	return nil
}

func (p *FakePage) WaitForLoad(context.Context) error {
	defer p.enter("load")()
	return nil
}

func (p *FakePage) InputControl(context.Context) (page.Control, error) {
	if p.InputMissing {
		return nil, page.NewUnavailableError("input control", page.DefaultInputName, errors.New("no matching element"))
	}
	return &fakeControl{p: p}, nil
}

func (p *FakePage) OutputSurface(context.Context) (page.Surface, error) {
	if p.OutputMissing || p.Clock.Now().Before(p.OutputMountedAt) {
		return nil, page.NewUnavailableError("output surface", page.DefaultOutputCSS, errors.New("no matching element"))
	}
	return &fakeSurface{p: p}, nil
}

func (p *FakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *FakePage) edit(value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshLocked()
	p.value = value
	p.lastEdit = p.Clock.Now()
}

// refreshLocked renders the current value if the debounce window passed.
func (p *FakePage) refreshLocked() {
	if p.Clock.Now().Sub(p.lastEdit) < p.Debounce {
		return
	}
	switch {
	case p.value == "":
		p.rendered = ""
	case p.stuck[p.value]:
		p.rendered = ""
	default:
		p.rendered = p.Transform(p.value)
	}
}

type fakeControl struct {
	p *FakePage
}

func (c *fakeControl) Clear(context.Context) error {
	defer c.p.enter("clear")()
	c.p.edit("")
	return nil
}

func (c *fakeControl) SetValue(_ context.Context, text string) error {
	defer c.p.enter("set " + text)()
	c.p.edit(text)
	return nil
}

func (c *fakeControl) TypeSequentially(ctx context.Context, text string, perCharDelay time.Duration) error {
	defer c.p.enter("type " + text)()
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.p.edit(c.p.Value() + string(r))
		c.p.Clock.Sleep(perCharDelay)
	}
	return nil
}

type fakeSurface struct {
	p *FakePage
}

func (s *fakeSurface) ReadText(context.Context) (string, error) {
	defer s.p.enter("read")()
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.p.closed {
		return "", fmt.Errorf("page closed")
	}
	if len(s.p.readErrs) > 0 {
		err := s.p.readErrs[0]
		s.p.readErrs = s.p.readErrs[1:]
		return "", err
	}
	s.p.refreshLocked()
	text := s.p.rendered
	if s.p.Decorate != nil && text != "" {
		text = s.p.Decorate(text)
	}
	return text, nil
}

// Padded is a Decorate func that surrounds text with whitespace and newlines.
func Padded(text string) string {
	return "\n  " + text + "  \n"
}

// Upper is a Transform used where any deterministic non-identity output will do.
func Upper(input string) string {
	return strings.ToUpper(input)
}
