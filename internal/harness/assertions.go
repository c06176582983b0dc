package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Entries  []string // Emitted identifiers for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Entries) > 0 {
		fmt.Fprintf(&buf, "\nEmitted identifiers:\n")
		for i, ident := range e.Entries {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, ident)
		}
	}
	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for stored assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertIdentifier:
			err = assertIdentifier(result, assertion)
		case AssertIdentifierOrder:
			err = assertIdentifierOrder(result, assertion)
		case AssertLayout:
			err = assertLayout(result, assertion)
		case AssertEnum:
			err = assertEnum(result, assertion)
		case AssertFunction:
			err = assertFunction(result, assertion)
		case AssertAlias:
			err = assertAlias(result, assertion)
		case AssertSymbolCount:
			err = assertSymbolCount(result, assertion)
		case AssertError:
			err = assertError(result, assertion)
		case AssertStored:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: stored requires database context", i)
			} else {
				err = assertStored(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func identifiers(r *Result) []string {
	out := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Identifier)
	}
	return out
}

// lookup finds the entry for an assertion's identifier, or explains why not.
func lookup(r *Result, typ, ident string) (*ir.Entry, error) {
	if r.Output == nil {
		return nil, &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("entry %s", ident),
			Actual:   "generation produced no output",
		}
	}
	e, ok := r.Output.Lookup(ident)
	if !ok {
		return nil, &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("entry %s", ident),
			Actual:   "not emitted",
			Entries:  identifiers(r),
		}
	}
	return e, nil
}

func assertIdentifier(r *Result, a Assertion) error {
	e, err := lookup(r, AssertIdentifier, a.Identifier)
	if err != nil {
		return err
	}
	if a.Kind != "" && string(e.Kind) != a.Kind {
		return &AssertionError{
			Type:     AssertIdentifier,
			Expected: fmt.Sprintf("%s to be a %s", a.Identifier, a.Kind),
			Actual:   string(e.Kind),
		}
	}
	if a.Path != "" && e.Path != a.Path {
		return &AssertionError{
			Type:     AssertIdentifier,
			Expected: fmt.Sprintf("%s to come from %s", a.Identifier, a.Path),
			Actual:   e.Path,
		}
	}
	return nil
}

// assertIdentifierOrder checks that identifiers appear in the given order.
// They need not be consecutive.
func assertIdentifierOrder(r *Result, a Assertion) error {
	positions := make(map[string]int)
	for i, e := range r.Entries {
		if _, seen := positions[e.Identifier]; !seen {
			positions[e.Identifier] = i + 1 // 1-indexed for readability
		}
	}

	for _, ident := range a.Identifiers {
		if positions[ident] == 0 {
			return &AssertionError{
				Type:     AssertIdentifierOrder,
				Expected: fmt.Sprintf("all identifiers present: %v", a.Identifiers),
				Actual:   fmt.Sprintf("missing identifier: %s", ident),
				Entries:  identifiers(r),
			}
		}
	}

	for i := 1; i < len(a.Identifiers); i++ {
		prev, curr := a.Identifiers[i-1], a.Identifiers[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertIdentifierOrder,
				Expected: fmt.Sprintf("identifiers in order: %v", a.Identifiers),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Entries: identifiers(r),
			}
		}
	}
	return nil
}

func assertLayout(r *Result, a Assertion) error {
	e, err := lookup(r, AssertLayout, a.Identifier)
	if err != nil {
		return err
	}
	if e.Kind != ir.EntryType {
		return &AssertionError{Type: AssertLayout, Expected: a.Identifier + " to be a type", Actual: string(e.Kind)}
	}

	p, l := e.Type, e.Type.Layout()
	if a.Projection != "" && a.Projection != string(p.Kind) && a.Projection != string(l.Kind) {
		return &AssertionError{
			Type:     AssertLayout,
			Expected: fmt.Sprintf("%s projected as %s", a.Identifier, a.Projection),
			Actual:   describeProjection(p),
		}
	}
	if a.Size != nil && *a.Size != l.Size {
		return &AssertionError{
			Type:     AssertLayout,
			Expected: fmt.Sprintf("%s size %d", a.Identifier, *a.Size),
			Actual:   fmt.Sprintf("size %d", l.Size),
		}
	}
	if a.Align != nil && *a.Align != l.Align {
		return &AssertionError{
			Type:     AssertLayout,
			Expected: fmt.Sprintf("%s align %d", a.Identifier, *a.Align),
			Actual:   fmt.Sprintf("align %d", l.Align),
		}
	}

	for _, name := range sortedKeys(a.Offsets) {
		f, ok := p.Field(name)
		if !ok {
			return &AssertionError{
				Type:     AssertLayout,
				Expected: fmt.Sprintf("%s to have field %s", a.Identifier, name),
				Actual:   "no such mirrored field",
			}
		}
		if f.Offset != a.Offsets[name] {
			return &AssertionError{
				Type:     AssertLayout,
				Expected: fmt.Sprintf("%s.%s at offset %d", a.Identifier, name, a.Offsets[name]),
				Actual:   fmt.Sprintf("offset %d", f.Offset),
			}
		}
	}
	return nil
}

func describeProjection(p *ir.ProjectedType) string {
	if p.Kind == ir.ProjTemplate {
		return fmt.Sprintf("%s of %s", p.Kind, p.Layout().Kind)
	}
	return string(p.Kind)
}

func assertEnum(r *Result, a Assertion) error {
	e, err := lookup(r, AssertEnum, a.Identifier)
	if err != nil {
		return err
	}
	p := e.Type
	if p == nil || p.Kind != ir.ProjScalarEnum {
		return &AssertionError{Type: AssertEnum, Expected: a.Identifier + " to be an enum", Actual: string(e.Kind)}
	}
	if a.Width != 0 && a.Width != p.Width {
		return &AssertionError{
			Type:     AssertEnum,
			Expected: fmt.Sprintf("%s width %d", a.Identifier, a.Width),
			Actual:   fmt.Sprintf("width %d", p.Width),
		}
	}
	for _, name := range sortedKeys(a.Constants) {
		c, ok := p.Constant(name)
		if !ok {
			return &AssertionError{
				Type:     AssertEnum,
				Expected: fmt.Sprintf("%s to have constant %s", a.Identifier, name),
				Actual:   "no such constant",
			}
		}
		if c.Value != a.Constants[name] {
			return &AssertionError{
				Type:     AssertEnum,
				Expected: fmt.Sprintf("%s::%s = %d", a.Identifier, name, a.Constants[name]),
				Actual:   fmt.Sprintf("%d", c.Value),
			}
		}
	}
	return nil
}

func assertFunction(r *Result, a Assertion) error {
	e, err := lookup(r, AssertFunction, a.Identifier)
	if err != nil {
		return err
	}
	f := e.Function
	if f == nil {
		return &AssertionError{Type: AssertFunction, Expected: a.Identifier + " to be a function", Actual: string(e.Kind)}
	}
	if a.Throws != nil && *a.Throws != f.Throws {
		return &AssertionError{
			Type:     AssertFunction,
			Expected: fmt.Sprintf("%s throws=%t", a.Identifier, *a.Throws),
			Actual:   fmt.Sprintf("throws=%t", f.Throws),
		}
	}
	if a.Return != "" {
		ret := "void"
		if !f.Return.IsVoid() {
			ret = f.Return.Ident
		}
		if ret != a.Return {
			return &AssertionError{
				Type:     AssertFunction,
				Expected: fmt.Sprintf("%s returns %s", a.Identifier, a.Return),
				Actual:   ret,
			}
		}
	}
	if a.Params != nil {
		var got []string
		for _, p := range f.Inputs() {
			got = append(got, p.Type.Ident)
		}
		if strings.Join(got, ", ") != strings.Join(a.Params, ", ") {
			return &AssertionError{
				Type:     AssertFunction,
				Expected: fmt.Sprintf("%s(%s)", a.Identifier, strings.Join(a.Params, ", ")),
				Actual:   fmt.Sprintf("(%s)", strings.Join(got, ", ")),
			}
		}
	}
	return nil
}

func assertAlias(r *Result, a Assertion) error {
	if r.Output == nil {
		return &AssertionError{Type: AssertAlias, Expected: "alias " + a.Alias, Actual: "generation produced no output"}
	}
	for _, al := range r.Output.Aliases {
		if al.Name != a.Alias {
			continue
		}
		if al.Target != a.Target {
			return &AssertionError{
				Type:     AssertAlias,
				Expected: fmt.Sprintf("%s -> %s", a.Alias, a.Target),
				Actual:   fmt.Sprintf("%s -> %s", al.Name, al.Target),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertAlias,
		Expected: fmt.Sprintf("%s -> %s", a.Alias, a.Target),
		Actual:   "alias not emitted",
	}
}

func assertSymbolCount(r *Result, a Assertion) error {
	count := 0
	if r.Output != nil {
		count = len(r.Output.Symbols())
	}
	if count != *a.Count {
		return &AssertionError{
			Type:     AssertSymbolCount,
			Expected: fmt.Sprintf("%d exported symbols", *a.Count),
			Actual:   fmt.Sprintf("%d exported symbols", count),
		}
	}
	return nil
}

func assertError(r *Result, a Assertion) error {
	for _, p := range r.Problems {
		if p.Code == a.Code && strings.Contains(p.Message, a.Contains) {
			return nil
		}
	}
	expected := "error " + a.Code
	if a.Contains != "" {
		expected += fmt.Sprintf(" mentioning %q", a.Contains)
	}
	actual := "no errors"
	if len(r.Problems) > 0 {
		actual = strings.Join(r.Codes(), ", ")
	}
	return &AssertionError{Type: AssertError, Expected: expected, Actual: actual}
}

// assertStored checks the recorded mapping row for an identifier.
func assertStored(ctx context.Context, st *store.Store, a Assertion) error {
	rows, err := st.Lookup(ctx, a.Identifier)
	if err != nil {
		return &AssertionError{
			Type:     AssertStored,
			Expected: fmt.Sprintf("lookup %s", a.Identifier),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if len(rows) == 0 {
		return &AssertionError{
			Type:     AssertStored,
			Expected: fmt.Sprintf("row for %s", a.Identifier),
			Actual:   "row not found",
		}
	}
	if len(rows) > 1 {
		return &AssertionError{
			Type:     AssertStored,
			Expected: fmt.Sprintf("exactly one row for %s", a.Identifier),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}
	row := rows[0]
	if a.Path != "" && row.Path != a.Path {
		return &AssertionError{
			Type:     AssertStored,
			Expected: fmt.Sprintf("%s stored for %s", a.Identifier, a.Path),
			Actual:   row.Path,
		}
	}
	if a.Kind != "" && string(row.Kind) != a.Kind {
		return &AssertionError{
			Type:     AssertStored,
			Expected: fmt.Sprintf("%s stored as %s", a.Identifier, a.Kind),
			Actual:   string(row.Kind),
		}
	}
	return nil
}

// sortedKeys returns map keys in order so failures are reported deterministically.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
