package symbol

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/flatbind/internal/ir"
)

// Name is the structured form of an identifier.
type Name struct {
	Root     string     // first namespace segment, or the library name at global scope
	Global   bool       // Root is the library name, not a namespace
	Version  ir.Version // version of the library that declares the entity
	Scope    []Segment  // remaining namespace segments, the entity, then any member
	Overload int        // 0 for the first overload, omitted from the encoding
}

// Segment is one scope level, optionally with template arguments.
type Segment struct {
	Name      string
	Args      []Arg
	Synthetic bool // made-up member name: ctor, dtor or op_<name>
}

// ArgKind identifies a template argument shape.
type ArgKind int

const (
	ArgBuiltin ArgKind = iota
	ArgConstant
	ArgNamed
	ArgPointer
)

// Arg is one positional template argument.
type Arg struct {
	Kind    ArgKind
	Builtin string // C++ spelling for ArgBuiltin
	Value   int64  // ArgConstant
	Named   *Name  // ArgNamed
	Elem    *Arg   // ArgPointer
	Const   bool   // ArgPointer: pointee is const
}

// Equal reports whether two names are structurally identical.
func (n Name) Equal(o Name) bool {
	if n.Root != o.Root || n.Global != o.Global || n.Version != o.Version || n.Overload != o.Overload {
		return false
	}
	return slices.EqualFunc(n.Scope, o.Scope, func(a, b Segment) bool {
		return a.Name == b.Name && a.Synthetic == b.Synthetic && slices.EqualFunc(a.Args, b.Args, Arg.equal)
	})
}

func (a Arg) equal(b Arg) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ArgBuiltin:
		return a.Builtin == b.Builtin
	case ArgConstant:
		return a.Value == b.Value
	case ArgNamed:
		return a.Named != nil && b.Named != nil && a.Named.Equal(*b.Named)
	case ArgPointer:
		return a.Const == b.Const && a.Elem != nil && b.Elem != nil && a.Elem.equal(*b.Elem)
	}
	return false
}

// Child returns a copy of n with one more scope segment named by the source.
func (n Name) Child(name string) Name {
	return n.child(Segment{Name: name})
}

// SyntheticChild returns a copy of n with a made-up member segment such as
// "ctor" or "op_iadd".
func (n Name) SyntheticChild(name string) Name {
	return n.child(Segment{Name: name, Synthetic: true})
}

func (n Name) child(seg Segment) Name {
	scope := make([]Segment, len(n.Scope), len(n.Scope)+1)
	copy(scope, n.Scope)
	n.Scope = append(scope, seg)
	n.Overload = 0
	return n
}

// WithOverload returns a copy of n carrying the overload disambiguator.
func (n Name) WithOverload(i int) Name {
	n.Overload = i
	return n
}

// Base returns the name without its overload disambiguator. Overloads are
// counted per distinct base.
func (n Name) Base() Name {
	n.Overload = 0
	return n
}

// Path renders n in C++ spelling, without its version or overload. Global
// names start with "::".
func (n Name) Path() string {
	var b strings.Builder
	if !n.Global {
		b.WriteString(n.Root)
	}
	for _, seg := range n.Scope {
		b.WriteString("::")
		b.WriteString(seg.Name)
		if len(seg.Args) == 0 {
			continue
		}
		b.WriteByte('<')
		for i, a := range seg.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.spelling())
		}
		b.WriteByte('>')
	}
	return b.String()
}

func (a Arg) spelling() string {
	switch a.Kind {
	case ArgBuiltin:
		return a.Builtin
	case ArgConstant:
		return strconv.FormatInt(a.Value, 10)
	case ArgNamed:
		return a.Named.Path()
	case ArgPointer:
		if a.Const {
			return "const " + a.Elem.spelling() + "*"
		}
		return a.Elem.spelling() + "*"
	}
	return "?"
}
