package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/roach88/flatbind/internal/compiler"
	"github.com/roach88/flatbind/internal/config"
	"github.com/roach88/flatbind/internal/emit"
	"github.com/roach88/flatbind/internal/harness"
	"github.com/roach88/flatbind/internal/ir"
)

// Error code constants - unified across all CLI commands. Model and
// generation errors keep the E1xx/E2xx codes of the error that raised them.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Invalid settings
	ErrCodeDecode      = "E003" // Identifier is not an encoded name
	ErrCodeLoadFailed  = "E004" // Model could not be read or compiled
	ErrCodeNotFound    = "E005" // Path or row not found
	ErrCodeStore       = "E006" // Mapping database error
	ErrCodeWriteFailed = "E007" // File write error
)

// LoadError represents an error that occurred while reading a model.
type LoadError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
}

// ModelProblem is one error found in a model, tagged with its file.
type ModelProblem struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// LoadModels reads every model file, applies the library overrides in cfg
// and validates the result. All files are read; the problems of every file
// are returned together. Models are returned only when there are none.
func LoadModels(paths []string, cfg *config.Config) ([]*ir.Model, []ModelProblem) {
	var (
		models   []*ir.Model
		problems []ModelProblem
	)
	for _, path := range paths {
		m, err := loadModel(path)
		if err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				problems = append(problems, ModelProblem{Path: le.Path, Code: le.Code, Message: le.Message})
			} else {
				problems = append(problems, ModelProblem{Path: path, Code: ErrCodeGeneric, Message: err.Error()})
			}
			continue
		}
		cfg.Apply(m)
		for _, ve := range compiler.Validate(m) {
			problems = append(problems, ModelProblem{Path: path, Code: ve.Code, Field: ve.Field, Message: ve.Message})
		}
		models = append(models, m)
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return models, nil
}

func loadModel(path string) (*ir.Model, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeNotFound, Message: fmt.Sprintf("model not found: %v", err)}
	}
	m, err := compiler.LoadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return m, nil
}

// generationProblems flattens a generation error into per-error problems.
// Each library's emit.Error is expanded into the errors it collected.
func generationProblems(err error) []ModelProblem {
	var problems []ModelProblem
	for _, libErr := range multierr.Errors(err) {
		leaves := []error{libErr}
		var emitErr *emit.Error
		if errors.As(libErr, &emitErr) {
			leaves = emitErr.Errors()
		}
		for _, e := range leaves {
			code := harness.ErrorCode(e)
			if code == "" {
				code = ErrCodeGeneric
			}
			problems = append(problems, ModelProblem{Code: code, Message: e.Error()})
		}
	}
	return problems
}

// newFormatter binds a formatter to the command's writers.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// settings loads the configuration, reporting failures in the command's
// output format.
func settings(opts *RootOptions, formatter *OutputFormatter) (*config.Config, error) {
	cfg, err := opts.Config()
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// outputModelProblems reports model or generation problems. They are
// failures of the input, not of the command: exit code 1.
func outputModelProblems(formatter *OutputFormatter, heading string, problems []ModelProblem) error {
	err := NewExitError(ExitFailure, fmt.Sprintf("%s with %d error(s)", heading, len(problems)))
	if formatter.Format == "json" {
		if encErr := formatter.Failure(problems[0].Code, problems[0].Message, problems); encErr != nil {
			return encErr
		}
		return err
	}

	formatter.Fail("%s", heading)
	fmt.Fprintln(formatter.Writer)
	for _, p := range problems {
		if p.Path != "" {
			fmt.Fprintln(formatter.Writer, formatter.Faint(p.Path))
		}
		if p.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", p.Code, p.Field, p.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", p.Code, p.Message)
		}
	}
	return err
}
