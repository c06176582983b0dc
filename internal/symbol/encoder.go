package symbol

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/flatbind/internal/ir"
)

var cIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Encoder builds names for the declarations of one model.
type Encoder struct {
	lib   ir.Library
	index map[string]*ir.Decl
}

// NewEncoder returns an encoder resolving named references against m.
func NewEncoder(m *ir.Model) *Encoder {
	return &Encoder{lib: m.Library, index: m.Index()}
}

// GlobalRoot returns the library name with characters outside a C identifier
// replaced by '_'. It is the root of global-scope names, which also carry
// the global marker, and the prefix of per-library helpers.
func GlobalRoot(lib ir.Library) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, lib.Name)
}

// Resolve finds the declaration a named reference points at.
func (e *Encoder) Resolve(ref ir.TypeRef, from string) (*ir.Decl, error) {
	d, ok := e.index[ref.Qualified()]
	if !ok {
		return nil, ir.NewUnresolvedError(ref.Qualified(), from)
	}
	if !ref.Version.IsZero() && ref.Version != d.Version {
		return nil, ir.NewUnresolvedError(ref.Qualified()+"@"+ref.Version.String(), from)
	}
	return d, nil
}

// DeclName returns the name of a record, enum or free function.
func (e *Encoder) DeclName(d *ir.Decl) (Name, error) {
	n, err := e.scoped(d.Namespace, d.Version)
	if err != nil {
		return Name{}, err
	}
	if err := checkIdent(d.Name); err != nil {
		return Name{}, err
	}
	seg := Segment{Name: d.Name}
	for _, a := range d.TemplateArgs {
		arg, err := e.Arg(a, d.Qualified())
		if err != nil {
			return Name{}, err
		}
		seg.Args = append(seg.Args, arg)
	}
	n.Scope = append(n.Scope, seg)
	return n, nil
}

// RefName returns the name of the declaration a named reference resolves to.
func (e *Encoder) RefName(ref ir.TypeRef, from string) (Name, *ir.Decl, error) {
	d, err := e.Resolve(ref, from)
	if err != nil {
		return Name{}, nil, err
	}
	n, err := e.DeclName(d)
	return n, d, err
}

// MemberName returns the name of a source-named member of rec: a method or
// an enum constant.
func (e *Encoder) MemberName(rec *ir.Decl, member string) (Name, error) {
	if err := checkIdent(member); err != nil {
		return Name{}, err
	}
	n, err := e.DeclName(rec)
	if err != nil {
		return Name{}, err
	}
	return n.Child(member), nil
}

// SyntheticMemberName returns the name of a constructor, destructor or
// operator of rec under its made-up flat name.
func (e *Encoder) SyntheticMemberName(rec *ir.Decl, member string) (Name, error) {
	if !synthetic(member) {
		return Name{}, fmt.Errorf("symbol: %q is not a constructor, destructor or operator name", member)
	}
	n, err := e.DeclName(rec)
	if err != nil {
		return Name{}, err
	}
	return n.SyntheticChild(member), nil
}

// Arg converts one template argument.
func (e *Encoder) Arg(ref ir.TypeRef, from string) (Arg, error) {
	switch ref.Kind {
	case ir.RefBuiltin:
		if ref.Const {
			return Arg{}, ir.NewLayoutError(from, "const-qualified template argument %s", ref)
		}
		if _, ok := ir.BuiltinToken(ref.Builtin); !ok {
			return Arg{}, ir.NewLayoutError(from, "unknown builtin %q in template argument", ref.Builtin)
		}
		return Arg{Kind: ArgBuiltin, Builtin: ref.Builtin}, nil
	case ir.RefConstant:
		return Arg{Kind: ArgConstant, Value: ref.Value}, nil
	case ir.RefNamed:
		n, _, err := e.RefName(ref, from)
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: ArgNamed, Named: &n}, nil
	case ir.RefPointer:
		if ref.Elem == nil {
			return Arg{}, ir.NewLayoutError(from, "pointer template argument without element type")
		}
		elem, err := e.Arg(*ref.Elem, from)
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: ArgPointer, Elem: &elem, Const: ref.Const}, nil
	default:
		return Arg{}, ir.NewLayoutError(from, "unsupported template argument %s", ref)
	}
}

func (e *Encoder) scoped(namespace []string, v ir.Version) (Name, error) {
	if len(namespace) == 0 {
		return Name{Root: GlobalRoot(e.lib), Global: true, Version: v}, nil
	}
	for _, ns := range namespace {
		if err := checkIdent(ns); err != nil {
			return Name{}, err
		}
	}
	n := Name{Root: namespace[0], Version: v}
	for _, ns := range namespace[1:] {
		n.Scope = append(n.Scope, Segment{Name: ns})
	}
	return n, nil
}

func checkIdent(name string) error {
	if !cIdent.MatchString(name) {
		return fmt.Errorf("symbol: %q is not a C identifier", name)
	}
	return nil
}

// Overloads assigns disambiguators to names that share a base identifier,
// counting in the order names are presented. The zero value is ready to use.
type Overloads struct {
	seen map[string]int
}

// Next returns n with the next free disambiguator for its base.
func (o *Overloads) Next(n Name) Name {
	if o.seen == nil {
		o.seen = make(map[string]int)
	}
	base := Encode(n.Base())
	i := o.seen[base]
	o.seen[base] = i + 1
	return n.WithOverload(i)
}
