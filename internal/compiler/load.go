package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/flatbind/internal/ir"
)

// LoadFile reads a declaration model, choosing the decoder by extension:
// .cue, .yaml/.yml or .json.
func LoadFile(path string) (*ir.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(data, path)
	case ".yaml", ".yml":
		return LoadYAML(data, path)
	case ".json":
		return LoadJSON(data, path)
	default:
		return nil, fmt.Errorf("%s: unsupported model format (want .cue, .yaml, .yml or .json)", path)
	}
}

// LoadCUE compiles CUE source holding a model at its top level.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
func LoadCUE(data []byte, filename string) (*ir.Model, error) {
	ctx := cuecontext.New()
	return CompileModel(ctx.CompileBytes(data, cue.Filename(filename)))
}

// CompileModel converts an evaluated CUE value into a model. The value must
// be concrete; CUE constraints and defaults are resolved before decoding.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`library: {name: "imath", version: {major: 2, minor: 5}}, decls: [...]`)
//	m, err := CompileModel(v)
func CompileModel(v cue.Value) (*ir.Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.LookupPath(cue.ParsePath("library")).Exists() {
		return nil, &CompileError{Field: "library", Message: "library is required", Pos: v.Pos()}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	data, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var m ir.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &CompileError{Field: "model", Message: err.Error(), Pos: v.Pos()}
	}
	Normalize(&m)
	return &m, nil
}

// LoadYAML decodes a YAML model. Unknown keys are rejected.
func LoadYAML(data []byte, filename string) (*ir.Model, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m ir.Model
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	Normalize(&m)
	return &m, nil
}

// LoadJSON decodes a JSON model. Unknown keys are rejected.
func LoadJSON(data []byte, filename string) (*ir.Model, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var m ir.Model
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	Normalize(&m)
	return &m, nil
}

// Normalize fills defaults: top-level declarations without a version take
// the library's, and members take their record's.
func Normalize(m *ir.Model) {
	for i := range m.Decls {
		d := &m.Decls[i]
		if d.Version.IsZero() {
			d.Version = m.Library.Version
		}
		for j := range d.Members {
			if d.Members[j].Version.IsZero() {
				d.Members[j].Version = d.Version
			}
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
