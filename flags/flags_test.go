package flags

import (
	"testing"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestOptionalFlagsDontSetRequired asserts that all flags deemed optional set
// the Required field to false.
func TestOptionalFlagsDontSetRequired(t *testing.T) {
	for _, flag := range optionalFlags {
		reqFlag, ok := flag.(cli.RequiredFlag)
		require.True(t, ok)
		require.False(t, reqFlag.IsRequired())
	}
}

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, flag := range Flags {
		name := flag.Names()[0]
		if _, ok := seenCLI[name]; ok {
			t.Errorf("duplicate flag %s", name)
			continue
		}
		seenCLI[name] = struct{}{}
	}
}

func TestEnvVarFormat(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
			require.Equal(t, opservice.FlagNameToEnvVarName(flagName, EnvVarPrefix), envFlags[0])
		})
	}
}

func TestDriverFlag(t *testing.T) {
	t.Run("type methods", func(t *testing.T) {
		assert.Equal(t, "chromedp", DriverChromedp.String())
		assert.True(t, DriverPlaywright.IsValid())
		assert.True(t, DriverRod.IsValid())
		assert.False(t, DriverType("selenium").IsValid())
		assert.False(t, DriverType("").IsValid())
		assert.Len(t, ValidDriverTypes(), 3)
	})

	app := &cli.App{
		Flags:  []cli.Flag{Driver},
		Action: func(ctx *cli.Context) error { return nil },
	}
	testCases := []struct {
		name        string
		args        []string
		shouldError bool
	}{
		{"chromedp", []string{"app", "--driver", "chromedp"}, false},
		{"playwright", []string{"app", "--driver", "playwright"}, false},
		{"rod", []string{"app", "--driver", "rod"}, false},
		{"invalid", []string{"app", "--driver", "Chromedp"}, true},
		{"default", []string{"app"}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := app.Run(tc.args)
			if tc.shouldError {
				assert.ErrorContains(t, err, "driver must be one of")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckRequired(t *testing.T) {
	testCases := []struct {
		name        string
		args        []string
		shouldError bool
	}{
		{"url", []string{"app", "--url", "https://example.com"}, false},
		{"config", []string{"app", "--config", "acceptor.yaml"}, false},
		{"neither", []string{"app"}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var checkErr error
			app := &cli.App{
				Flags: Flags,
				Action: func(ctx *cli.Context) error {
					checkErr = CheckRequired(ctx)
					return nil
				},
			}
			require.NoError(t, app.Run(tc.args))
			if tc.shouldError {
				assert.ErrorContains(t, checkErr, "flag url is required")
			} else {
				assert.NoError(t, checkErr)
			}
		})
	}
}

func TestTimingFlagDefaultsToUnset(t *testing.T) {
	app := &cli.App{
		Flags: Flags,
		Action: func(ctx *cli.Context) error {
			assert.Zero(t, ctx.Duration(PollCeiling.Name))
			assert.Equal(t, "logs", ctx.String(LogDir.Name))
			assert.Equal(t, 1, ctx.Int(Workers.Name))
			assert.True(t, ctx.Bool(Headless.Name))
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"app"}))
}
