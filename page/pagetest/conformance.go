package pagetest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/ui-acceptor/page"
)

// BrowserTestsEnv enables the driver conformance suite. It needs a local
// browser (or the playwright driver) and is skipped otherwise.
const BrowserTestsEnv = "UI_ACCEPTOR_BROWSER_TESTS"

// fixtureHTML is a miniature translator: it upper-cases the input after a
// short debounce, the way the reference UI renders asynchronously.
const fixtureHTML = `<!doctype html>
<html><head><meta charset="utf-8"><title>fixture</title></head>
<body>
  <div class="w-full h-80 p-3 rounded-lg ring-1 ring-slate-300 whitespace-pre-wrap">
    <textarea aria-label="Input Your Singlish Text Here."></textarea>
  </div>
  <div class="w-full h-80 p-3 rounded-lg ring-1 ring-slate-300 whitespace-pre-wrap" id="out"></div>
  <script>
    const input = document.querySelector('textarea');
    const out = document.getElementById('out');
    let timer = null;
    input.addEventListener('input', () => {
      clearTimeout(timer);
      timer = setTimeout(() => { out.textContent = input.value.toUpperCase(); }, 100);
    });
  </script>
</body></html>`

// FixtureServer serves the fixture at / and 404 everywhere else.
func FixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, fixtureHTML)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// RunConformance exercises a real driver against the fixture page.
func RunConformance(t *testing.T, factory func(sel page.Selectors) page.Factory) {
	if os.Getenv(BrowserTestsEnv) == "" {
		t.Skipf("set %s to run browser conformance tests", BrowserTestsEnv)
	}
	srv := FixtureServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	open := func(t *testing.T, sel page.Selectors) page.Page {
		p, err := factory(sel)(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Close() })
		require.NoError(t, p.Navigate(ctx, srv.URL))
		require.NoError(t, p.WaitForLoad(ctx))
		return p
	}

	awaitOutput := func(t *testing.T, s page.Surface, want string) {
		require.Eventually(t, func() bool {
			got, err := s.ReadText(ctx)
			return err == nil && got == want
		}, 10*time.Second, 50*time.Millisecond)
	}

	t.Run("set value renders", func(t *testing.T) {
		p := open(t, page.Selectors{})
		in, err := p.InputControl(ctx)
		require.NoError(t, err)
		out, err := p.OutputSurface(ctx)
		require.NoError(t, err)

		require.NoError(t, in.SetValue(ctx, "mama gedhara"))
		awaitOutput(t, out, "MAMA GEDHARA")

		require.NoError(t, in.Clear(ctx))
		awaitOutput(t, out, "")
	})

	t.Run("sequential typing renders", func(t *testing.T) {
		p := open(t, page.Selectors{})
		in, err := p.InputControl(ctx)
		require.NoError(t, err)
		out, err := p.OutputSurface(ctx)
		require.NoError(t, err)

		require.NoError(t, in.TypeSequentially(ctx, "oyaa", 10*time.Millisecond))
		awaitOutput(t, out, "OYAA")
	})

	t.Run("css input selector", func(t *testing.T) {
		p := open(t, page.Selectors{InputCSS: "textarea"})
		_, err := p.InputControl(ctx)
		require.NoError(t, err)
	})

	t.Run("missing input", func(t *testing.T) {
		p := open(t, page.Selectors{InputName: "No Such Box"})
		_, err := p.InputControl(ctx)
		require.ErrorIs(t, err, page.ErrAdapterUnavailable)
	})

	t.Run("missing output", func(t *testing.T) {
		p := open(t, page.Selectors{OutputCSS: "section.nothing"})
		_, err := p.OutputSurface(ctx)
		require.ErrorIs(t, err, page.ErrAdapterUnavailable)
	})

	t.Run("http error is a navigation failure", func(t *testing.T) {
		p, err := factory(page.Selectors{})(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Close() })
		err = p.Navigate(ctx, srv.URL+"/missing")
		var navErr *page.NavigationError
		require.True(t, errors.As(err, &navErr), "got %v", err)
		assert.Contains(t, err.Error(), "HTTP status 404")

		require.NoError(t, p.Navigate(ctx, srv.URL+"/"), "a good page after a bad one still loads")
	})
}
