// Package rodpage drives the target UI with go-rod.
package rodpage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ethereum-optimism/infra/ui-acceptor/page"
)

// Config configures how browsers are obtained.
type Config struct {
	Headless bool
	// RemoteURL is a DevTools websocket URL of a running browser.
	RemoteURL   string
	Selectors   page.Selectors
	LoadTimeout time.Duration
	Log         log.Logger
}

// NewFactory returns a page.Factory that opens a browser per page.
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

// Page is a rod page together with the browser it owns.
type Page struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	selectors   page.Selectors
	loadTimeout time.Duration
	log         log.Logger
}

var _ page.Page = (*Page)(nil)

// Open launches (or connects to) a browser and opens a blank page.
func Open(ctx context.Context, cfg Config) (*Page, error) {
	p := &Page{
		selectors:   cfg.Selectors,
		loadTimeout: cfg.LoadTimeout,
		log:         cfg.Log,
	}

	controlURL := cfg.RemoteURL
	if controlURL == "" {
		p.launcher = launcher.New().Headless(cfg.Headless).Context(ctx)
		u, err := p.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("could not launch browser: %w", err)
		}
		controlURL = u
	}

	p.browser = rod.New().ControlURL(controlURL)
	if err := p.browser.Connect(); err != nil {
		p.kill()
		return nil, fmt.Errorf("could not connect to browser: %w", err)
	}

	pg, err := p.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = p.browser.Close()
		p.kill()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	p.page = pg
	p.log.Debug("rod page opened", "control", controlURL)
	return p, nil
}

func (p *Page) kill() {
	if p.launcher != nil {
		p.launcher.Kill()
	}
}

// on binds the page to ctx for a single call chain.
func (p *Page) on(ctx context.Context) *rod.Page {
	return p.page.Context(ctx)
}

// Navigate implements page.Page. Rod only fails on network errors, so the
// main document's response is watched for an HTTP error status.
func (p *Page) Navigate(ctx context.Context, url string) error {
	pg := p.on(ctx).Timeout(p.loadTimeout)
	defer pg.CancelTimeout()

	status := 0
	waitResponse := pg.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument || e.FrameID != pg.FrameID {
			return false
		}
		status = e.Response.Status
		return true
	})
	if err := pg.Navigate(url); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return page.NewNavigationError(url, err)
	}
	waitResponse()
	if err := ctx.Err(); err != nil {
		return err
	}
	if status == 0 {
		p.log.Warn("No document response seen, HTTP status unchecked", "url", url)
		return nil
	}
	if status >= 400 {
		return page.NewNavigationError(url, fmt.Errorf("HTTP status %d", status))
	}
	return nil
}

// WaitForLoad implements page.Page.
func (p *Page) WaitForLoad(ctx context.Context) error {
	return p.on(ctx).Timeout(p.loadTimeout).WaitLoad()
}

func (p *Page) eval(ctx context.Context, fn string, args ...any) (*proto.RuntimeRemoteObject, error) {
	return p.on(ctx).Eval(fn, args...)
}

// InputControl implements page.Page.
func (p *Page) InputControl(ctx context.Context) (page.Control, error) {
	res, err := p.eval(ctx, page.MarkInputScript, p.selectors.InputName, p.selectors.InputCSS)
	if err != nil {
		return nil, fmt.Errorf("locating input control: %w", err)
	}
	if !res.Value.Bool() {
		return nil, page.NewUnavailableError("input control", p.selectors.InputDescription(), nil)
	}
	return &control{p: p}, nil
}

// OutputSurface implements page.Page.
func (p *Page) OutputSurface(ctx context.Context) (page.Surface, error) {
	s := &surface{p: p}
	if _, err := s.ReadText(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close implements page.Page.
func (p *Page) Close() error {
	err := errors.Join(p.page.Close(), p.browser.Close())
	p.kill()
	return err
}

type control struct {
	p *Page
}

func (c *control) call(ctx context.Context, fn string, args ...any) error {
	res, err := c.p.eval(ctx, fn, args...)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return page.NewUnavailableError("input control", c.p.selectors.InputDescription(), errors.New("element detached"))
	}
	return nil
}

func (c *control) Clear(ctx context.Context) error {
	return c.call(ctx, page.SetInputScript, "")
}

func (c *control) SetValue(ctx context.Context, text string) error {
	return c.call(ctx, page.SetInputScript, text)
}

func (c *control) TypeSequentially(ctx context.Context, text string, perCharDelay time.Duration) error {
	if err := c.call(ctx, page.FocusInputScript); err != nil {
		return err
	}
	pg := c.p.on(ctx)
	for _, r := range text {
		if err := pg.InsertText(string(r)); err != nil {
			return fmt.Errorf("inserting %q: %w", r, err)
		}
		if perCharDelay <= 0 {
			continue
		}
		t := time.NewTimer(perCharDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

type surface struct {
	p *Page
}

func (s *surface) ReadText(ctx context.Context) (string, error) {
	res, err := s.p.eval(ctx, page.ReadOutputScript, s.p.selectors.OutputCSS)
	if err != nil {
		return "", fmt.Errorf("reading output surface: %w", err)
	}
	if !res.Value.Get("found").Bool() {
		return "", page.NewUnavailableError("output surface", s.p.selectors.OutputCSS, nil)
	}
	return res.Value.Get("text").Str(), nil
}
