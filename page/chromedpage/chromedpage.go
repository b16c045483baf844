// Package chromedpage drives the target UI through the Chrome DevTools
// protocol using chromedp.
package chromedpage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/ui-acceptor/page"
)

// Config configures how browsers are obtained.
type Config struct {
	Headless bool
	// RemoteURL attaches to an already running browser's DevTools endpoint
	// instead of launching one.
	RemoteURL   string
	Selectors   page.Selectors
	LoadTimeout time.Duration
	Log         log.Logger
}

// NewFactory returns a page.Factory that opens a browser tab per call.
func NewFactory(cfg Config) page.Factory {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 30 * time.Second
	}
	cfg.Selectors = cfg.Selectors.Merge(page.DefaultSelectors())
	return func(ctx context.Context) (page.Page, error) {
		return Open(ctx, cfg)
	}
}

// Page is a chromedp browser tab.
type Page struct {
	ctx         context.Context // chromedp tab context
	cancel      context.CancelFunc
	selectors   page.Selectors
	loadTimeout time.Duration
	log         log.Logger
}

var _ page.Page = (*Page)(nil)

// Open launches (or attaches to) a browser and opens a tab.
func Open(ctx context.Context, cfg Config) (*Page, error) {
	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if cfg.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(context.WithoutCancel(ctx), cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.WindowSize(1280, 900),
		)
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	}

	logger := cfg.Log
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	// the first Run starts the browser
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Page{
		ctx: tabCtx,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
		selectors:   cfg.Selectors,
		loadTimeout: cfg.LoadTimeout,
		log:         cfg.Log,
	}, nil
}

// run executes actions on the tab, aborting when ctx is done.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (p *Page) evaluate(ctx context.Context, res any, fn string, args ...any) error {
	expr, err := page.Expression(fn, args...)
	if err != nil {
		return err
	}
	return p.run(ctx, chromedp.Evaluate(expr, res))
}

// Navigate implements page.Page.
func (p *Page) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return page.NewNavigationError(url, err)
	}
	if resp != nil && resp.Status >= 400 {
		return page.NewNavigationError(url, fmt.Errorf("HTTP status %d", resp.Status))
	}
	return nil
}

// WaitForLoad implements page.Page.
func (p *Page) WaitForLoad(ctx context.Context) error {
	var ready bool
	return p.run(ctx, chromedp.Poll(`document.readyState === 'complete'`, &ready,
		chromedp.WithPollingTimeout(p.loadTimeout),
		chromedp.WithPollingInterval(100*time.Millisecond),
	))
}

// InputControl implements page.Page.
func (p *Page) InputControl(ctx context.Context) (page.Control, error) {
	var found bool
	if err := p.evaluate(ctx, &found, page.MarkInputScript, p.selectors.InputName, p.selectors.InputCSS); err != nil {
		return nil, fmt.Errorf("locating input control: %w", err)
	}
	if !found {
		return nil, page.NewUnavailableError("input control", p.selectors.InputDescription(), nil)
	}
	return &control{p: p}, nil
}

// OutputSurface implements page.Page.
func (p *Page) OutputSurface(ctx context.Context) (page.Surface, error) {
	s := &surface{p: p}
	if _, err := s.probe(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close implements page.Page.
func (p *Page) Close() error {
	p.cancel()
	return nil
}

type control struct {
	p *Page
}

func (c *control) set(ctx context.Context, text string) error {
	var ok bool
	if err := c.p.evaluate(ctx, &ok, page.SetInputScript, text); err != nil {
		return err
	}
	if !ok {
		return page.NewUnavailableError("input control", c.p.selectors.InputDescription(), errors.New("element detached"))
	}
	return nil
}

func (c *control) Clear(ctx context.Context) error {
	return c.set(ctx, "")
}

func (c *control) SetValue(ctx context.Context, text string) error {
	return c.set(ctx, text)
}

// TypeSequentially inserts one character at a time through the input
// domain, which produces the same events as an IME commit.
func (c *control) TypeSequentially(ctx context.Context, text string, perCharDelay time.Duration) error {
	var ok bool
	if err := c.p.evaluate(ctx, &ok, page.FocusInputScript); err != nil {
		return err
	}
	if !ok {
		return page.NewUnavailableError("input control", c.p.selectors.InputDescription(), errors.New("element detached"))
	}
	for _, r := range text {
		if err := c.p.run(ctx, input.InsertText(string(r))); err != nil {
			return fmt.Errorf("inserting %q: %w", r, err)
		}
		if err := sleep(ctx, perCharDelay); err != nil {
			return err
		}
	}
	return nil
}

type surface struct {
	p *Page
}

func (s *surface) probe(ctx context.Context) (page.OutputProbe, error) {
	var out page.OutputProbe
	if err := s.p.evaluate(ctx, &out, page.ReadOutputScript, s.p.selectors.OutputCSS); err != nil {
		return out, fmt.Errorf("reading output surface: %w", err)
	}
	if !out.Found {
		return out, page.NewUnavailableError("output surface", s.p.selectors.OutputCSS, nil)
	}
	return out, nil
}

func (s *surface) ReadText(ctx context.Context) (string, error) {
	out, err := s.probe(ctx)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
