// Package playwrightpage drives the target UI with playwright-go.
package playwrightpage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/playwright-community/playwright-go"

	"github.com/ethereum-optimism/infra/ui-acceptor/page"
)

// Config configures how browsers are obtained.
type Config struct {
	Headless bool
	// RemoteURL connects over CDP to a running Chromium instead of launching one.
	RemoteURL   string
	Selectors   page.Selectors
	LoadTimeout time.Duration
	Log         log.Logger
}

// NewFactory returns a page.Factory that starts a playwright driver per page.
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

// Page is a playwright page.
type Page struct {
	pw          *playwright.Playwright
	browser     playwright.Browser
	page        playwright.Page
	selectors   page.Selectors
	loadTimeout time.Duration
	log         log.Logger
}

var _ page.Page = (*Page)(nil)

// Open starts playwright, obtains a browser and opens a page.
func Open(ctx context.Context, cfg Config) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	var browser playwright.Browser
	if cfg.RemoteURL != "" {
		browser, err = pw.Chromium.ConnectOverCDP(cfg.RemoteURL)
	} else {
		browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(cfg.Headless),
		})
	}
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	pg, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	pg.SetDefaultTimeout(float64(cfg.LoadTimeout.Milliseconds()))

	return &Page{
		pw:          pw,
		browser:     browser,
		page:        pg,
		selectors:   cfg.Selectors,
		loadTimeout: cfg.LoadTimeout,
		log:         cfg.Log,
	}, nil
}

// Navigate implements page.Page.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(p.loadTimeout.Milliseconds())),
	})
	if err != nil {
		return page.NewNavigationError(url, err)
	}
	if resp != nil && !resp.Ok() {
		return page.NewNavigationError(url, fmt.Errorf("HTTP status %d", resp.Status()))
	}
	return ctx.Err()
}

// WaitForLoad implements page.Page.
func (p *Page) WaitForLoad(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(p.loadTimeout.Milliseconds())),
	})
}

func (p *Page) evaluate(ctx context.Context, fn string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expr, err := page.Expression(fn, args...)
	if err != nil {
		return nil, err
	}
	return p.page.Evaluate(expr)
}

// InputControl implements page.Page.
func (p *Page) InputControl(ctx context.Context) (page.Control, error) {
	res, err := p.evaluate(ctx, page.MarkInputScript, p.selectors.InputName, p.selectors.InputCSS)
	if err != nil {
		return nil, fmt.Errorf("locating input control: %w", err)
	}
	if found, _ := res.(bool); !found {
		return nil, page.NewUnavailableError("input control", p.selectors.InputDescription(), nil)
	}
	return &control{p: p, loc: p.page.Locator(page.InputMarkerQuery)}, nil
}

// OutputSurface implements page.Page.
func (p *Page) OutputSurface(ctx context.Context) (page.Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := p.page.Locator(p.selectors.OutputCSS).Filter(playwright.LocatorFilterOptions{
		HasNot: p.page.Locator("textarea, [role='textbox']"),
	}).First()
	count, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("locating output surface: %w", err)
	}
	if count == 0 {
		return nil, page.NewUnavailableError("output surface", p.selectors.OutputCSS, nil)
	}
	return &surface{p: p, loc: loc}, nil
}

// Close implements page.Page.
func (p *Page) Close() error {
	return errors.Join(p.browser.Close(), p.pw.Stop())
}

type control struct {
	p   *Page
	loc playwright.Locator
}

func (c *control) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.wrap(c.loc.Clear())
}

func (c *control) SetValue(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.wrap(c.loc.Fill(text))
}

func (c *control) TypeSequentially(ctx context.Context, text string, perCharDelay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.wrap(c.loc.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(float64(perCharDelay.Milliseconds())),
	}))
}

// wrap maps a timeout on a vanished marker to an unavailable control.
func (c *control) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return page.NewUnavailableError("input control", c.p.selectors.InputDescription(), err)
	}
	return err
}

type surface struct {
	p   *Page
	loc playwright.Locator
}

func (s *surface) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := s.loc.TextContent()
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return "", page.NewUnavailableError("output surface", s.p.selectors.OutputCSS, err)
		}
		return "", err
	}
	return text, nil
}
