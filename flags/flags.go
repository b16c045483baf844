package flags

import (
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "UI_ACCEPTOR"

// DriverType selects the browser automation library.
type DriverType string

const (
	DriverChromedp   DriverType = "chromedp"
	DriverPlaywright DriverType = "playwright"
	DriverRod        DriverType = "rod"
)

// String returns the string representation of the driver type
func (d DriverType) String() string {
	return string(d)
}

// IsValid checks if the driver type is valid
func (d DriverType) IsValid() bool {
	return slices.Contains(ValidDriverTypes(), d)
}

// ValidDriverTypes returns all valid driver types
func ValidDriverTypes() []DriverType {
	return []DriverType{DriverChromedp, DriverPlaywright, DriverRod}
}

func validateDriver(value string) error {
	if !DriverType(value).IsValid() {
		names := make([]string, 0, len(ValidDriverTypes()))
		for _, d := range ValidDriverTypes() {
			names = append(names, d.String())
		}
		return fmt.Errorf("driver must be one of: %s", strings.Join(names, ", "))
	}
	return nil
}

var (
	TargetURL = &cli.StringFlag{
		Name:    "url",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "URL"),
		Usage:   "URL of the translator UI under test. Required unless set in the config file",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Path to a YAML or TOML config file with target, selectors and timings",
	}
	CasesFile = &cli.StringFlag{
		Name:    "cases",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CASES"),
		Usage:   "Path to a YAML or JSON case file replacing the built-in cases",
	}
	Suites = &cli.StringSliceFlag{
		Name:    "suite",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUITE"),
		Usage:   "Only run the given suite (positive, negative, ui). Repeatable",
	}
	CaseIDs = &cli.StringSliceFlag{
		Name:    "case",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CASE"),
		Usage:   "Only run the case with the given ID (eg. 'Pos_Fun_0001'). Repeatable",
	}
	Driver = &cli.StringFlag{
		Name:    "driver",
		Value:   DriverChromedp.String(),
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DRIVER"),
		Usage:   "Browser automation driver: chromedp, playwright or rod",
		Action: func(ctx *cli.Context, value string) error {
			return validateDriver(value)
		},
	}
	Headless = &cli.BoolFlag{
		Name:    "headless",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEADLESS"),
		Usage:   "Run the browser without a window",
	}
	BrowserURL = &cli.StringFlag{
		Name:    "browser-url",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BROWSER_URL"),
		Usage:   "Attach to a running browser's DevTools endpoint instead of launching one",
	}
	Workers = &cli.IntFlag{
		Name:    "workers",
		Value:   1,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WORKERS"),
		Usage:   "Number of browser sessions running cases in parallel",
	}
	Repeat = &cli.IntFlag{
		Name:    "repeat",
		Value:   1,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPEAT"),
		Usage:   "Run each case this many times back to back",
	}
	FreshPage = &cli.BoolFlag{
		Name:    "fresh-page",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FRESH_PAGE"),
		Usage:   "Reload the target before every case",
	}
	Progressive = &cli.BoolFlag{
		Name:    "progressive",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROGRESSIVE"),
		Usage:   "Type every input character by character instead of filling it at once",
	}
	ShowProgress = &cli.BoolFlag{
		Name:    "show-progress",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHOW_PROGRESS"),
		Usage:   "Render a progress bar while cases run",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to store run reports and logs",
	}
	StatusEnabled = &cli.BoolFlag{
		Name:    "status.enabled",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STATUS_ENABLED"),
		Usage:   "Serve /healthz and the run report API",
	}
	StatusAddr = &cli.StringFlag{
		Name:    "status.addr",
		Value:   "0.0.0.0",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STATUS_ADDR"),
		Usage:   "Status server listening address",
	}
	StatusPort = &cli.IntFlag{
		Name:    "status.port",
		Value:   8080,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STATUS_PORT"),
		Usage:   "Status server listening port",
	}
)

// Selector overrides. Empty values fall back to the config file, then to
// the built-in selectors.
var (
	InputName = &cli.StringFlag{
		Name:    "selector.input-name",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SELECTOR_INPUT_NAME"),
		Usage:   "Accessible name of the input textbox",
	}
	InputCSS = &cli.StringFlag{
		Name:    "selector.input-css",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SELECTOR_INPUT_CSS"),
		Usage:   "CSS selector of the input control, takes precedence over the accessible name",
	}
	OutputCSS = &cli.StringFlag{
		Name:    "selector.output-css",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SELECTOR_OUTPUT_CSS"),
		Usage:   "CSS selector of the output surface",
	}
	Placeholder = &cli.StringFlag{
		Name:    "selector.placeholder",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SELECTOR_PLACEHOLDER"),
		Usage:   "Text shown by the output surface while empty",
	}
)

// Timing overrides. Unset flags keep the configured value; an explicit 0s
// is honored.
var (
	PageLoad        = timingFlag("page-load", "Hold after navigating to the target")
	AfterClear      = timingFlag("after-clear", "Hold after clearing the input")
	Translation     = timingFlag("translation", "Quiet period between settle detection and reading")
	BetweenTests    = timingFlag("between-tests", "Cooldown after each case")
	PollInterval    = timingFlag("poll-interval", "First settle poll interval")
	PollMaxInterval = timingFlag("poll-max-interval", "Maximum settle poll interval")
	PollCeiling     = timingFlag("poll-ceiling", "Upper bound on waiting for output to appear")
	PartialObserve  = timingFlag("partial-observe", "Observation window after typing a partial input")
	PerCharDelay    = timingFlag("per-char-delay", "Delay between characters when typing progressively")
)

func timingFlag(name, usage string) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:    "timing." + name,
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMING_"+strings.ToUpper(strings.ReplaceAll(name, "-", "_"))),
		Usage:   usage,
	}
}

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	TargetURL,
	ConfigFile,
	CasesFile,
	Suites,
	CaseIDs,
	Driver,
	Headless,
	BrowserURL,
	Workers,
	Repeat,
	FreshPage,
	Progressive,
	ShowProgress,
	RunInterval,
	LogDir,
	StatusEnabled,
	StatusAddr,
	StatusPort,
	InputName,
	InputCSS,
	OutputCSS,
	Placeholder,
	PageLoad,
	AfterClear,
	Translation,
	BetweenTests,
	PollInterval,
	PollMaxInterval,
	PollCeiling,
	PartialObserve,
	PerCharDelay,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	if !ctx.IsSet(TargetURL.Name) && !ctx.IsSet(ConfigFile.Name) {
		return fmt.Errorf("flag %s is required unless --%s provides a target", TargetURL.Name, ConfigFile.Name)
	}
	return opflags.CheckRequiredXor(ctx)
}
