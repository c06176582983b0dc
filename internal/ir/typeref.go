package ir

import (
	"strconv"
)

// TypeRefKind identifies the shape of a type reference.
type TypeRefKind string

const (
	RefBuiltin   TypeRefKind = "builtin"
	RefNamed     TypeRefKind = "named" // record or enum declared in the model
	RefPointer   TypeRefKind = "pointer"
	RefReference TypeRefKind = "reference"
	RefConstant  TypeRefKind = "constant" // integral template argument
)

// TypeRef references a type from a field, parameter, return or template
// argument position.
type TypeRef struct {
	Kind      TypeRefKind `json:"kind" yaml:"kind"`
	Builtin   string      `json:"builtin,omitempty" yaml:"builtin,omitempty"` // C++ spelling, e.g. "unsigned int"
	Namespace []string    `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Name      string      `json:"name,omitempty" yaml:"name,omitempty"`
	Version   Version     `json:"version" yaml:"version"` // zero means "resolve from the model"
	Args      []TypeRef   `json:"args,omitempty" yaml:"args,omitempty"`
	Elem      *TypeRef    `json:"elem,omitempty" yaml:"elem,omitempty"`
	Const     bool        `json:"const,omitempty" yaml:"const,omitempty"` // on pointers and references: the pointee is const
	Value     int64       `json:"value,omitempty" yaml:"value,omitempty"`
}

// BuiltinRef returns a reference to a builtin scalar.
func BuiltinRef(spelling string) TypeRef {
	return TypeRef{Kind: RefBuiltin, Builtin: spelling}
}

// NamedRef returns a reference to a model declaration.
func NamedRef(namespace []string, name string, args ...TypeRef) TypeRef {
	return TypeRef{Kind: RefNamed, Namespace: namespace, Name: name, Args: args}
}

// PointerTo returns a pointer to elem.
func PointerTo(elem TypeRef, isConst bool) TypeRef {
	return TypeRef{Kind: RefPointer, Elem: &elem, Const: isConst}
}

// ReferenceTo returns an lvalue reference to elem.
func ReferenceTo(elem TypeRef, isConst bool) TypeRef {
	return TypeRef{Kind: RefReference, Elem: &elem, Const: isConst}
}

// ConstantRef returns an integral template argument.
func ConstantRef(v int64) TypeRef {
	return TypeRef{Kind: RefConstant, Value: v}
}

// IsVoid reports whether the reference is the builtin void.
func (t TypeRef) IsVoid() bool {
	return t.Kind == RefBuiltin && t.Builtin == "void"
}

// IsIndirect reports whether the reference is a pointer or reference.
func (t TypeRef) IsIndirect() bool {
	return t.Kind == RefPointer || t.Kind == RefReference
}

// Qualified returns the lookup key of a named reference, matching
// Decl.Qualified for the declaration it names.
func (t TypeRef) Qualified() string {
	return qualify(t.Namespace, t.Name, t.Args)
}

// String returns the C++ spelling of the reference.
func (t TypeRef) String() string {
	switch t.Kind {
	case RefBuiltin:
		if t.Const {
			return "const " + t.Builtin
		}
		return t.Builtin
	case RefNamed:
		if t.Const {
			return "const " + t.Qualified()
		}
		return t.Qualified()
	case RefPointer, RefReference:
		elem := "void"
		if t.Elem != nil {
			elem = t.Elem.String()
		}
		suffix := "*"
		if t.Kind == RefReference {
			suffix = "&"
		}
		if t.Const && (t.Elem == nil || !t.Elem.Const) {
			return "const " + elem + suffix
		}
		return elem + suffix
	case RefConstant:
		return strconv.FormatInt(t.Value, 10)
	default:
		return "<invalid>"
	}
}
