package acceptor

import (
	"fmt"

	"github.com/ethereum-optimism/infra/ui-acceptor/flags"
	"github.com/ethereum-optimism/infra/ui-acceptor/page"
	"github.com/ethereum-optimism/infra/ui-acceptor/page/chromedpage"
	"github.com/ethereum-optimism/infra/ui-acceptor/page/playwrightpage"
	"github.com/ethereum-optimism/infra/ui-acceptor/page/rodpage"
)

// NewPageFactory returns the page factory of the configured driver.
func NewPageFactory(config *Config) (page.Factory, error) {
	switch config.Driver {
	case flags.DriverChromedp, "":
		return chromedpage.NewFactory(chromedpage.Config{
			Headless:  config.Headless,
			RemoteURL: config.BrowserURL,
			Selectors: config.Selectors,
			Log:       config.Log,
		}), nil
	case flags.DriverPlaywright:
		return playwrightpage.NewFactory(playwrightpage.Config{
			Headless:  config.Headless,
			RemoteURL: config.BrowserURL,
			Selectors: config.Selectors,
			Log:       config.Log,
		}), nil
	case flags.DriverRod:
		return rodpage.NewFactory(rodpage.Config{
			Headless:  config.Headless,
			RemoteURL: config.BrowserURL,
			Selectors: config.Selectors,
			Log:       config.Log,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", config.Driver)
	}
}
