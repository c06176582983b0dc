package compiler

import (
	"fmt"
	"regexp"

	"github.com/roach88/flatbind/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrLibraryName       = "E101" // library name missing or unusable
	ErrInvalidKind       = "E102" // unknown declaration kind
	ErrMisplacedDecl     = "E103" // member outside a record, or non-member inside one
	ErrInvalidName       = "E104" // name is not a C identifier
	ErrDuplicateName     = "E105" // duplicate type, field, parameter or constant name
	ErrInvalidTypeRef    = "E106" // malformed type reference
	ErrInvalidRepr       = "E107" // unknown representation or bad abi measurement
	ErrOperatorSpelling  = "E108" // operator without spelling, or spelling on a non-operator
	ErrInvalidVersion    = "E109" // negative version component
	ErrContainmentCycle  = "E110" // records contain each other by value
	ErrInvalidAlignment  = "E111" // explicit alignment not a power of two
	ErrTemplateArguments = "E112" // template arguments on something that cannot take them
)

// ValidationError represents a model validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var libraryPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// Validate checks the structure of a model before generation.
// Returns all errors found (does not fail-fast). Layout and naming problems
// that depend on projection are left to the emitter.
func Validate(m *ir.Model) []ValidationError {
	v := &validator{}

	if !libraryPattern.MatchString(m.Library.Name) {
		v.add("library.name", ErrLibraryName, "library name %q must start with a letter and contain only letters, digits, '_', '-' or '.'", m.Library.Name)
	}
	if m.Library.Prefix != "" && !identPattern.MatchString(m.Library.Prefix) {
		v.add("library.prefix", ErrLibraryName, "prefix %q is not a C identifier", m.Library.Prefix)
	}
	v.version("library.version", m.Library.Version)

	types := make(map[string]string)
	for i := range m.Decls {
		d := &m.Decls[i]
		field := fmt.Sprintf("decls[%d]", i)
		v.decl(field, d, false)

		if d.Kind == ir.KindEnum || d.Kind.IsRecord() {
			key := d.Qualified()
			if prev, dup := types[key]; dup {
				v.add(field, ErrDuplicateName, "%s %s is already declared at %s", d.Kind, key, prev)
			} else {
				types[key] = field
			}
		}
	}

	v.errs = append(v.errs, CheckContainment(m)...)
	return v.errs
}

type validator struct {
	errs []ValidationError
}

func (v *validator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *validator) version(field string, ver ir.Version) {
	if ver.Major < 0 || ver.Minor < 0 {
		v.add(field, ErrInvalidVersion, "version %s has a negative component", ver)
	}
}

func (v *validator) ident(field, name string) {
	if !identPattern.MatchString(name) {
		v.add(field, ErrInvalidName, "%q is not a C identifier", name)
	}
}

func (v *validator) decl(field string, d *ir.Decl, inRecord bool) {
	if !ir.ValidDeclKinds[d.Kind] {
		v.add(field+".kind", ErrInvalidKind, "unknown declaration kind %q", d.Kind)
		return
	}
	switch {
	case inRecord && !d.Kind.IsMember():
		v.add(field+".kind", ErrMisplacedDecl, "%s cannot be a record member", d.Kind)
		return
	case !inRecord && d.Kind.IsMember():
		v.add(field+".kind", ErrMisplacedDecl, "%s %q declared outside a record", d.Kind, d.Name)
		return
	}

	if !inRecord {
		v.version(field+".version", d.Version)
		for j, ns := range d.Namespace {
			v.ident(fmt.Sprintf("%s.namespace[%d]", field, j), ns)
		}
	}

	switch d.Kind {
	case ir.KindConstructor, ir.KindDestructor, ir.KindOperator:
	default:
		v.ident(field+".name", d.Name)
	}

	if d.Kind == ir.KindOperator && d.Operator == "" {
		v.add(field+".operator", ErrOperatorSpelling, "operator has no spelling")
	}
	if d.Kind != ir.KindOperator && d.Operator != "" {
		v.add(field+".operator", ErrOperatorSpelling, "%s cannot carry operator spelling %q", d.Kind, d.Operator)
	}
	if d.Alias != "" {
		v.ident(field+".alias", d.Alias)
	}

	switch {
	case d.Kind.IsRecord():
		v.record(field, d)
	case d.Kind == ir.KindEnum:
		v.enum(field, d)
	default:
		v.callable(field, d)
	}
}

func (v *validator) record(field string, d *ir.Decl) {
	for j, a := range d.TemplateArgs {
		v.typeRef(fmt.Sprintf("%s.template_args[%d]", field, j), a, true)
	}

	switch d.Repr {
	case ir.ReprAuto, ir.ReprOpaque, ir.ReprBytes:
	default:
		v.add(field+".repr", ErrInvalidRepr, "unknown representation %q (want opaque or bytes)", d.Repr)
	}
	if d.ABI != nil && (d.ABI.Size <= 0 || d.ABI.Align <= 0) {
		v.add(field+".abi", ErrInvalidRepr, "abi size and align must be positive, got size %d align %d", d.ABI.Size, d.ABI.Align)
	}
	if d.Align != 0 && (d.Align < 0 || d.Align&(d.Align-1) != 0) {
		v.add(field+".align", ErrInvalidAlignment, "alignment %d is not a power of two", d.Align)
	}

	names := make(map[string]bool)
	for j, f := range d.Fields {
		ff := fmt.Sprintf("%s.fields[%d]", field, j)
		v.ident(ff+".name", f.Name)
		if names[f.Name] {
			v.add(ff+".name", ErrDuplicateName, "duplicate field %q", f.Name)
		}
		names[f.Name] = true
		v.typeRef(ff+".type", f.Type, false)
		if f.Type.IsVoid() {
			v.add(ff+".type", ErrInvalidTypeRef, "field %q has type void", f.Name)
		}
	}
	for j, b := range d.Bases {
		bf := fmt.Sprintf("%s.bases[%d].type", field, j)
		if b.Type.Kind != ir.RefNamed {
			v.add(bf, ErrInvalidTypeRef, "base must name a record, got %s", b.Type.Kind)
			continue
		}
		v.typeRef(bf, b.Type, false)
	}
	for j := range d.Members {
		v.decl(fmt.Sprintf("%s.members[%d]", field, j), &d.Members[j], true)
	}
}

func (v *validator) enum(field string, d *ir.Decl) {
	if len(d.TemplateArgs) > 0 {
		v.add(field+".template_args", ErrTemplateArguments, "enums cannot be templates")
	}
	if len(d.Constants) == 0 {
		v.add(field+".constants", ErrInvalidRepr, "enum %s has no constants", d.Name)
	}
	switch d.Width {
	case 0, 8, 16, 32, 64:
	default:
		v.add(field+".width", ErrInvalidRepr, "width %d is not one of 8, 16, 32, 64", d.Width)
	}
	names := make(map[string]bool)
	for j, c := range d.Constants {
		cf := fmt.Sprintf("%s.constants[%d].name", field, j)
		v.ident(cf, c.Name)
		if names[c.Name] {
			v.add(cf, ErrDuplicateName, "duplicate constant %q", c.Name)
		}
		names[c.Name] = true
	}
}

func (v *validator) callable(field string, d *ir.Decl) {
	if len(d.TemplateArgs) > 0 {
		v.add(field+".template_args", ErrTemplateArguments, "function templates are bound per instantiation; declare the instance")
	}
	names := make(map[string]bool)
	for j, p := range d.Params {
		pf := fmt.Sprintf("%s.params[%d]", field, j)
		if p.Name != "" {
			v.ident(pf+".name", p.Name)
			if names[p.Name] {
				v.add(pf+".name", ErrDuplicateName, "duplicate parameter %q", p.Name)
			}
			names[p.Name] = true
		}
		v.typeRef(pf+".type", p.Type, false)
	}
	if d.Return != nil {
		v.typeRef(field+".return", *d.Return, false)
	}
	if (d.Kind == ir.KindConstructor || d.Kind == ir.KindDestructor) && d.Return != nil && !d.Return.IsVoid() {
		v.add(field+".return", ErrInvalidTypeRef, "%s cannot return a value", d.Kind)
	}
	if d.Kind == ir.KindDestructor && len(d.Params) > 0 {
		v.add(field+".params", ErrInvalidTypeRef, "destructor takes no parameters")
	}
}

// typeRef checks the shape of a reference. Resolution against the model
// happens at generation time.
func (v *validator) typeRef(field string, t ir.TypeRef, templateArg bool) {
	switch t.Kind {
	case ir.RefBuiltin:
		if _, ok := ir.BuiltinToken(t.Builtin); !ok {
			v.add(field, ErrInvalidTypeRef, "unknown builtin %q", t.Builtin)
		}
	case ir.RefNamed:
		v.ident(field+".name", t.Name)
		for j, ns := range t.Namespace {
			v.ident(fmt.Sprintf("%s.namespace[%d]", field, j), ns)
		}
		for j, a := range t.Args {
			v.typeRef(fmt.Sprintf("%s.args[%d]", field, j), a, true)
		}
	case ir.RefPointer, ir.RefReference:
		if t.Elem == nil {
			v.add(field, ErrInvalidTypeRef, "%s without element type", t.Kind)
			return
		}
		if t.Elem.Kind == ir.RefReference {
			v.add(field, ErrInvalidTypeRef, "%s to a reference", t.Kind)
			return
		}
		v.typeRef(field+".elem", *t.Elem, false)
	case ir.RefConstant:
		if !templateArg {
			v.add(field, ErrInvalidTypeRef, "integral constant %d used as a type", t.Value)
		}
	default:
		v.add(field, ErrInvalidTypeRef, "unknown type reference kind %q", t.Kind)
	}
}
