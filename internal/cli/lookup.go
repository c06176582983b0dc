package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flatbind/internal/store"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	DBPath string
	Decl   bool // argument is a declaration id, not an identifier
}

// LookupRow is one stored mapping row, with its detail as embedded JSON.
type LookupRow struct {
	Library    string          `json:"library"`
	Seq        int64           `json:"seq"`
	Identifier string          `json:"identifier"`
	Kind       string          `json:"kind"`
	Path       string          `json:"path"`
	DeclKind   string          `json:"decl_kind"`
	Version    string          `json:"version"`
	DeclID     string          `json:"decl_id"`
	Detail     json.RawMessage `json:"detail"`
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup <identifier>",
		Short: "Find an identifier in a mapping database",
		Long: `Look up an identifier in the mapping database written by
"flatbind generate --db", across every recorded run.

With --decl the argument is a declaration id instead, and every
identifier bound to that declaration is listed (one per overload).

Examples:
  flatbind lookup --db mapping.db Imath_2_5__Vec3__1float__3__dot
  flatbind lookup --db mapping.db --decl 9f2c...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to the mapping database (default from config)")
	cmd.Flags().BoolVar(&opts.Decl, "decl", false, "look up by declaration id")

	return cmd
}

func runLookup(opts *LookupOptions, key string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExistingStore(opts.RootOptions, opts.DBPath, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := commandContext(cmd)
	var rows []store.Row
	if opts.Decl {
		rows, err = st.LookupDecl(ctx, key)
	} else {
		rows, err = st.Lookup(ctx, key)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "lookup failed", err)
	}
	if len(rows) == 0 {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("%s not recorded", key), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("%s not recorded", key))
	}

	result := make([]LookupRow, 0, len(rows))
	for _, r := range rows {
		result = append(result, LookupRow{
			Library:    r.Library,
			Seq:        r.Seq,
			Identifier: r.Identifier,
			Kind:       string(r.Kind),
			Path:       r.Path,
			DeclKind:   r.DeclKind,
			Version:    r.Version,
			DeclID:     r.DeclID,
			Detail:     json.RawMessage(r.Detail),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, r := range result {
		fmt.Fprintf(formatter.Writer, "%s %s\n", formatter.Ident(r.Identifier), formatter.Faint(fmt.Sprintf("(%s, run %d)", r.Library, r.Seq)))
		fmt.Fprintf(formatter.Writer, "  %s %s %s\n", r.DeclKind, r.Path, r.Version)
		formatter.VerboseLog("  decl %s", r.DeclID)
	}
	return nil
}

// openExistingStore opens the database named by the flag or the settings.
// Reading commands never create a database.
func openExistingStore(opts *RootOptions, flagPath string, formatter *OutputFormatter) (*store.Store, error) {
	path := flagPath
	if path == "" {
		cfg, err := settings(opts, formatter)
		if err != nil {
			return nil, err
		}
		path = cfg.Database
	}
	if path == "" {
		_ = formatter.Error(ErrCodeNotFound, "no database: pass --db or set database in the config", nil)
		return nil, NewExitError(ExitCommandError, "no database configured")
	}
	st, err := store.OpenExisting(path)
	if errors.Is(err, store.ErrNoDatabase) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
