package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/flatbind/internal/ir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the declaration model to generate from.
	// Relative paths are resolved from the scenario file's directory.
	Model string `yaml:"model"`

	// Target is the compilation target (lp64, llp64, ilp32). Empty means lp64.
	Target string `yaml:"target,omitempty"`

	// AllowSignedEnums permits negative enumerators.
	AllowSignedEnums bool `yaml:"allow_signed_enums,omitempty"`

	// Expect is "ok" (the default) or "error".
	Expect string `yaml:"expect,omitempty"`

	// Assertions validate the output or the reported errors.
	Assertions []Assertion `yaml:"assertions"`
}

// Expectation values.
const (
	ExpectOK    = "ok"
	ExpectError = "error"
)

// Assertion checks one property of a run. Which fields are read depends on
// Type; see the package documentation.
type Assertion struct {
	Type string `yaml:"type"`

	Identifier  string   `yaml:"identifier,omitempty"`
	Identifiers []string `yaml:"identifiers,omitempty"`

	// Kind is the entry kind (type or function) for identifier assertions.
	Kind string `yaml:"kind,omitempty"`
	Path string `yaml:"path,omitempty"`

	// Layout
	Projection string         `yaml:"projection,omitempty"`
	Size       *int           `yaml:"size,omitempty"`
	Align      *int           `yaml:"align,omitempty"`
	Offsets    map[string]int `yaml:"offsets,omitempty"`

	// Enum
	Constants map[string]int64 `yaml:"constants,omitempty"`
	Width     int              `yaml:"width,omitempty"`

	// Function
	Throws *bool    `yaml:"throws,omitempty"`
	Return string   `yaml:"return,omitempty"`
	Params []string `yaml:"params,omitempty"`

	// Alias
	Alias  string `yaml:"alias,omitempty"`
	Target string `yaml:"target,omitempty"`

	// Symbol count
	Count *int `yaml:"count,omitempty"`

	// Error
	Code     string `yaml:"code,omitempty"`
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertIdentifier      = "identifier"
	AssertIdentifierOrder = "identifier_order"
	AssertLayout          = "layout"
	AssertEnum            = "enum"
	AssertFunction        = "function"
	AssertAlias           = "alias"
	AssertSymbolCount     = "symbol_count"
	AssertError           = "error"
	AssertStored          = "stored"
)

// LoadScenario reads and parses a scenario YAML file, resolving the model
// path relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the model path BEFORE validation
	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(filepath.Dir(path), scenario.Model)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// Discover returns the scenario files directly under dir, sorted by name.
func Discover(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("scenario directory: %w", err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.Model)
	}
	if _, err := ir.NewTarget(s.Target); err != nil {
		return err
	}

	switch s.Expect {
	case "":
		s.Expect = ExpectOK
	case ExpectOK, ExpectError:
	default:
		return fmt.Errorf("expect must be %q or %q, got %q", ExpectOK, ExpectError, s.Expect)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertIdentifier, AssertLayout, AssertEnum, AssertFunction, AssertStored:
		if a.Identifier == "" {
			return fmt.Errorf("assertions[%d]: identifier is required for %s", index, a.Type)
		}
	case AssertIdentifierOrder:
		if len(a.Identifiers) == 0 {
			return fmt.Errorf("assertions[%d]: identifiers list is required for identifier_order", index)
		}
	case AssertAlias:
		if a.Alias == "" || a.Target == "" {
			return fmt.Errorf("assertions[%d]: alias and target are required for alias", index)
		}
	case AssertSymbolCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for symbol_count", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Kind != "" && a.Kind != string(ir.EntryType) && a.Kind != string(ir.EntryFunction) {
		return fmt.Errorf("assertions[%d]: kind must be %q or %q", index, ir.EntryType, ir.EntryFunction)
	}
	return nil
}
