package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationResult holds the result of validation for JSON output.
type ValidationResult struct {
	Valid    bool           `json:"valid"`
	Models   int            `json:"models"`
	Problems []ModelProblem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <model>...",
		Short: "Validate declaration models",
		Long: `Validate declaration models without generating anything.

Reports every structural problem of every model: unknown kinds, misplaced
members, invalid names, duplicate names, unknown builtins, bad alignment
and records that contain each other by value.

Exit codes:
  0 - All models valid
  1 - One or more models have errors
  2 - Command error (invalid configuration, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := settings(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
	}
	models, problems := LoadModels(paths, cfg)
	if len(problems) > 0 {
		if formatter.Format == "json" {
			result := ValidationResult{Valid: false, Models: len(paths), Problems: problems}
			if err := formatter.Failure(problems[0].Code, problems[0].Message, result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))
		}
		return outputModelProblems(formatter, "Validation failed", problems)
	}

	return outputValidateSuccess(formatter, len(models))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, count int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Models: count})
	}

	formatter.Pass("All models valid (%d)", count)
	return nil
}
