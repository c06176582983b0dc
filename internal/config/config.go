// Package config loads flatbind.yaml, the per-project generation settings.
//
// Every field has a usable zero value, so a missing default file is not an
// error. Command-line flags override what the file says.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/roach88/flatbind/internal/emit"
	"github.com/roach88/flatbind/internal/ir"
)

// DefaultFile is read when no --config flag is given.
const DefaultFile = "flatbind.yaml"

// DefaultOutput is the output directory when none is configured.
const DefaultOutput = "out"

// Config holds generation settings.
type Config struct {
	// Target selects the builtin scalar layout: lp64, llp64 or ilp32.
	Target string `yaml:"target"`

	// AllowSignedEnums permits negative enumerators. Without it a negative
	// constant is a layout error.
	AllowSignedEnums bool `yaml:"allow_signed_enums"`

	// Output is the directory generated files are written to.
	Output string `yaml:"output"`

	// Database, if set, is the SQLite mapping store each run is recorded in.
	Database string `yaml:"database,omitempty"`

	// Libraries overrides library metadata by library name.
	Libraries map[string]LibraryOverride `yaml:"libraries,omitempty"`
}

// LibraryOverride replaces parts of a model's library block.
type LibraryOverride struct {
	Prefix   string   `yaml:"prefix,omitempty"`
	Includes []string `yaml:"includes,omitempty"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	return &Config{Target: ir.TargetLP64, Output: DefaultOutput}
}

// Load reads the file at path. An empty path means DefaultFile, which may
// be absent; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML settings. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if cfg.Target == "" {
		cfg.Target = ir.TargetLP64
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs error
	if _, err := ir.NewTarget(c.Target); err != nil {
		errs = multierr.Append(errs, err)
	}
	for name, lib := range c.Libraries {
		if lib.Prefix != "" && !isIdent(lib.Prefix) {
			errs = multierr.Append(errs, fmt.Errorf("libraries.%s.prefix: %q is not a C identifier", name, lib.Prefix))
		}
	}
	return errs
}

// EmitOptions converts the settings into generation options.
func (c *Config) EmitOptions() (emit.Options, error) {
	t, err := ir.NewTarget(c.Target)
	if err != nil {
		return emit.Options{}, err
	}
	return emit.Options{Target: t, AllowSignedEnums: c.AllowSignedEnums}, nil
}

// Apply writes the override for m's library, if any, into m. Configured
// includes are appended after the model's own, without duplicates.
func (c *Config) Apply(m *ir.Model) {
	o, ok := c.Libraries[m.Library.Name]
	if !ok {
		return
	}
	if o.Prefix != "" {
		m.Library.Prefix = o.Prefix
	}
	for _, inc := range o.Includes {
		if !slices.Contains(m.Library.Includes, inc) {
			m.Library.Includes = append(m.Library.Includes, inc)
		}
	}
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}
