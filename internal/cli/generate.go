package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/flatbind/internal/config"
	"github.com/roach88/flatbind/internal/emit"
	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/render"
	"github.com/roach88/flatbind/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	OutputDir        string
	Database         string
	Target           string
	AllowSignedEnums bool
}

// LibraryResult describes the artifacts generated for one library.
type LibraryResult struct {
	Library     string   `json:"library"`
	Version     string   `json:"version"`
	Target      string   `json:"target"`
	Fingerprint string   `json:"fingerprint"`
	Entries     int      `json:"entries"`
	Symbols     int      `json:"symbols"`
	Files       []string `json:"files"`
	RunID       string   `json:"run_id,omitempty"`
	Recorded    bool     `json:"recorded,omitempty"`
}

// GenerateResult is the JSON payload of a successful generate.
type GenerateResult struct {
	Libraries []LibraryResult `json:"libraries"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <model>...",
		Short: "Generate flat bindings from declaration models",
		Long: `Generate the C header, C++ shim and mapping table of each model.

Models are CUE (.cue) or YAML (.yaml, .yml) files. Either every model
generates, or nothing is written.

Examples:
  flatbind generate imath.yaml
  flatbind generate imath.yaml -o build/bindings --target llp64
  flatbind generate imath.yaml half.cue --db mapping.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "output directory (default from config, then ./"+config.DefaultOutput+")")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record each run in this SQLite mapping database")
	cmd.Flags().StringVar(&opts.Target, "target", "", "target data model (lp64|llp64|ilp32)")
	cmd.Flags().BoolVar(&opts.AllowSignedEnums, "allow-signed-enums", false, "accept enums with negative constants")

	return cmd
}

// effective merges flags over the file settings. Only flags given on the
// command line win.
func (o *GenerateOptions) effective(cfg *config.Config, cmd *cobra.Command) config.Config {
	eff := *cfg
	if o.OutputDir != "" {
		eff.Output = o.OutputDir
	}
	if o.Database != "" {
		eff.Database = o.Database
	}
	if o.Target != "" {
		eff.Target = o.Target
	}
	if cmd.Flags().Changed("allow-signed-enums") {
		eff.AllowSignedEnums = o.AllowSignedEnums
	}
	return eff
}

func runGenerate(opts *GenerateOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	fileCfg, err := settings(opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	cfg := opts.effective(fileCfg, cmd)

	emitOpts, err := cfg.EmitOptions()
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid target", err)
	}

	models, problems := LoadModels(paths, &cfg)
	if len(problems) > 0 {
		return outputModelProblems(formatter, "Validation failed", problems)
	}
	formatter.VerboseLog("Loaded %d model(s) for target %s", len(models), emitOpts.Target.Name)

	outs, err := emit.EmitAll(models, emitOpts)
	if err != nil {
		return outputModelProblems(formatter, "Generation failed", generationProblems(err))
	}

	var st *store.Store
	if cfg.Database != "" {
		st, err = store.Open(cfg.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
	}

	result := GenerateResult{Libraries: make([]LibraryResult, 0, len(outs))}
	for _, out := range outs {
		lib, err := writeLibrary(commandContext(cmd), out, cfg.Output, st, formatter)
		if err != nil {
			return err
		}
		result.Libraries = append(result.Libraries, lib)
	}

	return outputGenerateSuccess(formatter, result)
}

// writeLibrary renders and writes one library's artifacts, then records the
// run when a store is open.
func writeLibrary(ctx context.Context, out *ir.Output, dir string, st *store.Store, formatter *OutputFormatter) (LibraryResult, error) {
	files, err := render.Render(out)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return LibraryResult{}, WrapExitError(ExitFailure, "render failed", err)
	}
	written, err := files.Write(dir)
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), map[string]string{"dir": dir})
		return LibraryResult{}, WrapExitError(ExitCommandError, "failed to write output", err)
	}
	for _, path := range written {
		formatter.VerboseLog("Wrote %s", path)
	}

	lib := LibraryResult{
		Library:     out.Library.Name,
		Version:     out.Library.Version.String(),
		Target:      out.Target,
		Fingerprint: ir.MustFingerprint(out),
		Entries:     len(out.Entries),
		Symbols:     len(out.Symbols()),
		Files:       written,
	}

	if st != nil {
		run, inserted, err := st.WriteRun(ctx, out)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return LibraryResult{}, WrapExitError(ExitCommandError, "failed to record run", err)
		}
		lib.RunID, lib.Recorded = run.ID, inserted
		if !inserted {
			formatter.VerboseLog("Mapping for %s unchanged, run %d already recorded", lib.Library, run.Seq)
		}
	}
	return lib, nil
}

// outputGenerateSuccess outputs the generated libraries.
func outputGenerateSuccess(formatter *OutputFormatter, result GenerateResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, lib := range result.Libraries {
		formatter.Pass("Generated %s %s (%s): %d entries, %d symbols",
			lib.Library, lib.Version, lib.Target, lib.Entries, lib.Symbols)
		for _, f := range lib.Files {
			fmt.Fprintf(formatter.Writer, "  %s\n", formatter.Faint(filepath.ToSlash(f)))
		}
	}
	return nil
}
