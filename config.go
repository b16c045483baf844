package acceptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/ui-acceptor/flags"
	"github.com/ethereum-optimism/infra/ui-acceptor/page"
	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

// FileConfig is the optional config file. Durations are written as Go
// duration strings ("1500ms").
type FileConfig struct {
	Target    string                `yaml:"target" toml:"target"`
	Selectors page.Selectors        `yaml:"selectors" toml:"selectors"`
	Timings   types.TimingOverrides `yaml:"timings" toml:"timings"`
}

// LoadFileConfig reads a YAML or TOML config file, picked by extension.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &fc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown keys in config file %s: %v", path, undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (want .yaml, .yml or .toml)", ext)
	}
	return &fc, nil
}

// Config holds the application configuration
type Config struct {
	TargetURL      string
	CasesFile      string // empty for the built-in cases
	Suites         []types.Suite
	CaseIDs        []string
	Driver         flags.DriverType
	Headless       bool
	BrowserURL     string // attach to a running browser
	Workers        int
	Repeat         int
	FreshPage      bool
	Progressive    bool
	ShowProgress   bool
	RunInterval    time.Duration // Interval between runs
	RunOnce        bool          // Exit after one run
	LogDir         string        // Directory to store run reports
	Selectors      page.Selectors
	Timings        types.Timings
	StatusEnabled  bool
	StatusHost     string
	StatusPort     int
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int
	Log            log.Logger
}

// NewConfig creates a new Config from cli context. Flags win over the
// config file, which wins over built-in defaults.
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	fc := &FileConfig{}
	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		var err error
		if fc, err = LoadFileConfig(path); err != nil {
			return nil, err
		}
	}

	target := fc.Target
	if ctx.IsSet(flags.TargetURL.Name) {
		target = ctx.String(flags.TargetURL.Name)
	}
	if target == "" {
		return nil, errors.New("target URL is required")
	}

	selectors := overrideSelectors(fc.Selectors, page.Selectors{
		InputName:   ctx.String(flags.InputName.Name),
		InputCSS:    ctx.String(flags.InputCSS.Name),
		OutputCSS:   ctx.String(flags.OutputCSS.Name),
		Placeholder: ctx.String(flags.Placeholder.Name),
	}).Merge(page.DefaultSelectors())

	timings := fc.Timings.Apply(types.DefaultTimings())
	timings = timingFlagOverrides(ctx).Apply(timings)
	if err := timings.Validate(); err != nil {
		return nil, err
	}

	suites, err := parseSuites(ctx.StringSlice(flags.Suites.Name))
	if err != nil {
		return nil, err
	}

	driver := flags.DriverType(ctx.String(flags.Driver.Name))
	if !driver.IsValid() {
		return nil, fmt.Errorf("invalid driver: %s", driver)
	}

	workers := ctx.Int(flags.Workers.Name)
	if workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", workers)
	}
	repeat := ctx.Int(flags.Repeat.Name)
	if repeat < 1 {
		return nil, fmt.Errorf("repeat must be at least 1, got %d", repeat)
	}

	casesFile := ctx.String(flags.CasesFile.Name)
	if casesFile != "" {
		if casesFile, err = filepath.Abs(casesFile); err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for cases file: %w", err)
		}
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	runInterval := ctx.Duration(flags.RunInterval.Name)

	return &Config{
		TargetURL:      target,
		CasesFile:      casesFile,
		Suites:         suites,
		CaseIDs:        ctx.StringSlice(flags.CaseIDs.Name),
		Driver:         driver,
		Headless:       ctx.Bool(flags.Headless.Name),
		BrowserURL:     ctx.String(flags.BrowserURL.Name),
		Workers:        workers,
		Repeat:         repeat,
		FreshPage:      ctx.Bool(flags.FreshPage.Name),
		Progressive:    ctx.Bool(flags.Progressive.Name),
		ShowProgress:   ctx.Bool(flags.ShowProgress.Name),
		RunInterval:    runInterval,
		RunOnce:        runInterval == 0,
		LogDir:         logDir,
		Selectors:      selectors,
		Timings:        timings,
		StatusEnabled:  ctx.Bool(flags.StatusEnabled.Name),
		StatusHost:     ctx.String(flags.StatusAddr.Name),
		StatusPort:     ctx.Int(flags.StatusPort.Name),
		MetricsEnabled: metricsCfg.Enabled,
		MetricsHost:    metricsCfg.ListenAddr,
		MetricsPort:    metricsCfg.ListenPort,
		Log:            log,
	}, nil
}

func parseSuites(names []string) ([]types.Suite, error) {
	var suites []types.Suite
	for _, name := range names {
		s := types.Suite(strings.ToLower(strings.TrimSpace(name)))
		if !s.IsValid() {
			return nil, fmt.Errorf("unknown suite %q", name)
		}
		suites = append(suites, s)
	}
	return suites, nil
}

func overrideSelectors(base, over page.Selectors) page.Selectors {
	if over.InputName != "" || over.InputCSS != "" {
		base.InputName = over.InputName
		base.InputCSS = over.InputCSS
	}
	if over.OutputCSS != "" {
		base.OutputCSS = over.OutputCSS
	}
	if over.Placeholder != "" {
		base.Placeholder = over.Placeholder
	}
	return base
}

// timingFlagOverrides collects the timing flags that were given on the
// command line or through the environment, including explicit zeros.
func timingFlagOverrides(ctx *cli.Context) types.TimingOverrides {
	get := func(f *cli.DurationFlag) *time.Duration {
		if !ctx.IsSet(f.Name) {
			return nil
		}
		d := ctx.Duration(f.Name)
		return &d
	}
	return types.TimingOverrides{
		PageLoad:        get(flags.PageLoad),
		AfterClear:      get(flags.AfterClear),
		Translation:     get(flags.Translation),
		BetweenTests:    get(flags.BetweenTests),
		PollInterval:    get(flags.PollInterval),
		PollMaxInterval: get(flags.PollMaxInterval),
		PollCeiling:     get(flags.PollCeiling),
		PartialObserve:  get(flags.PartialObserve),
		PerCharDelay:    get(flags.PerCharDelay),
	}
}
