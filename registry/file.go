package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

// SupportedMajor is the case-file major version this build understands.
const SupportedMajor = "v1"

//go:embed cases.schema.json
var caseFileSchema []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// CaseFile is the on-disk form of a case table. JSON files are read with the
// YAML decoder.
type CaseFile struct {
	Version  string                      `yaml:"version"`
	Positive []types.TestCase            `yaml:"positive"`
	Negative []types.TestCase            `yaml:"negative"`
	UI       []types.IncrementalTestCase `yaml:"ui"`
}

// Builtin returns the built-in case table.
func Builtin() *CaseFile {
	return &CaseFile{
		Version:  BuiltinVersion,
		Positive: builtinPositive(),
		Negative: builtinNegative(),
		UI:       builtinUI(),
	}
}

// Cases flattens the file into execution order, stamping suites and
// filling missing categories.
func (f *CaseFile) Cases() []types.Case {
	out := make([]types.Case, 0, len(f.Positive)+len(f.Negative)+len(f.UI))
	for _, tc := range f.Positive {
		out = append(out, stamp(tc, types.SuitePositive))
	}
	for _, tc := range f.Negative {
		out = append(out, stamp(tc, types.SuiteNegative))
	}
	for _, ic := range f.UI {
		ic.TestCase = stamp(ic.TestCase, types.SuiteUI)
		if ic.ExpectedOutput == "" {
			ic.ExpectedOutput = ic.ExpectedFullOutput
		}
		out = append(out, ic)
	}
	return out
}

func stamp(tc types.TestCase, suite types.Suite) types.TestCase {
	tc.Suite = suite
	if tc.Category == "" {
		tc.Category = CategoryFromLabel(tc.CategoryLabel, suite)
	}
	return tc
}

// LoadCaseFile reads, schema-validates and decodes a YAML or JSON case file.
func LoadCaseFile(path string) (*CaseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseCaseFile(data)
}

// ParseCaseFile validates and decodes case file contents.
func ParseCaseFile(data []byte) (*CaseFile, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var f CaseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse cases: %w", err)
	}
	if err := checkVersion(f.Version); err != nil {
		return nil, err
	}
	return &f, nil
}

func checkVersion(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("case file version %q is not a valid semantic version", v)
	}
	if major := semver.Major(v); major != SupportedMajor {
		return fmt.Errorf("case file version %s is not supported (want %s.x.y)", v, SupportedMajor)
	}
	return nil
}

func compileSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(caseFileSchema))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal case schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("cases.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add case schema resource: %w", err)
			return
		}
		compiledSchema, err = compiler.Compile("cases.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile case schema: %w", err)
		}
	})
	return compileErr
}

// validateSchema checks data against the embedded schema. YAML is first
// re-encoded as JSON so that both formats share one validation path.
func validateSchema(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse cases: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("case file is empty")
	}
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("case file is not representable as JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return fmt.Errorf("re-read case file: %w", err)
	}
	if err := compiledSchema.Validate(inst); err != nil {
		return fmt.Errorf("case file does not match schema: %w", err)
	}
	return nil
}
