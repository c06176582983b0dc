package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/symbol"
)

// DecodeResult is the structured form of a decoded identifier.
type DecodeResult struct {
	Identifier string `json:"identifier"`
	Kind       string `json:"kind"` // "record", "enum" or "symbol"
	Path       string `json:"path"`
	Version    string `json:"version"`
	Overload   int    `json:"overload,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <identifier>",
		Short: "Decode a generated identifier",
		Long: `Decode an identifier from a generated header back into the C++ entity
it names, with the library version and overload index it encodes.

Identifiers ending in _t name records and identifiers ending in _e name
enums. Anything else is a function, method or enum constant.

Examples:
  flatbind decode Imath_2_5__Vec3__1float__3__dot
  flatbind decode Imath_2_5__Order_e --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDecode(opts *RootOptions, ident string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result, err := decodeIdentifier(ident)
	if err != nil {
		_ = formatter.Error(ErrCodeDecode, err.Error(), nil)
		return WrapExitError(ExitFailure, "not an encoded identifier", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s %s\n", formatter.Ident(result.Identifier), formatter.Faint(result.Kind))
	fmt.Fprintf(formatter.Writer, "  path:     %s\n", result.Path)
	fmt.Fprintf(formatter.Writer, "  version:  %s\n", result.Version)
	if result.Overload > 0 {
		fmt.Fprintf(formatter.Writer, "  overload: %d\n", result.Overload)
	}
	return nil
}

// decodeIdentifier tries the type grammar first for identifiers carrying a
// type suffix, and the symbol grammar otherwise or when that fails.
func decodeIdentifier(ident string) (DecodeResult, error) {
	if strings.HasSuffix(ident, symbol.RecordSuffix) || strings.HasSuffix(ident, symbol.EnumSuffix) {
		if n, kind, err := symbol.DecodeType(ident); err == nil {
			label := "record"
			if kind == ir.KindEnum {
				label = "enum"
			}
			return DecodeResult{Identifier: ident, Kind: label, Path: n.Path(), Version: n.Version.String()}, nil
		}
	}

	n, err := symbol.Decode(ident)
	if err != nil {
		return DecodeResult{}, err
	}
	return DecodeResult{
		Identifier: ident,
		Kind:       "symbol",
		Path:       n.Path(),
		Version:    n.Version.String(),
		Overload:   n.Overload,
	}, nil
}
