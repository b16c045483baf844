package playwrightpage

import (
	"testing"

	"github.com/ethereum-optimism/infra/ui-acceptor/page"
	"github.com/ethereum-optimism/infra/ui-acceptor/page/pagetest"
)

func TestConformance(t *testing.T) {
	pagetest.RunConformance(t, func(sel page.Selectors) page.Factory {
		return NewFactory(Config{Headless: true, Selectors: sel})
	})
}
