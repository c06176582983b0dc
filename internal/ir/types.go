package ir

import (
	"fmt"
	"strings"
)

// DeclKind identifies what a declaration is.
type DeclKind string

const (
	KindClass       DeclKind = "class"
	KindStruct      DeclKind = "struct"
	KindEnum        DeclKind = "enum"
	KindFunction    DeclKind = "function"
	KindMethod      DeclKind = "method"
	KindConstructor DeclKind = "constructor"
	KindDestructor  DeclKind = "destructor"
	KindOperator    DeclKind = "operator"
)

// ValidDeclKinds defines allowed declaration kinds.
var ValidDeclKinds = map[DeclKind]bool{
	KindClass:       true,
	KindStruct:      true,
	KindEnum:        true,
	KindFunction:    true,
	KindMethod:      true,
	KindConstructor: true,
	KindDestructor:  true,
	KindOperator:    true,
}

// IsRecord reports whether the kind declares a class or struct.
func (k DeclKind) IsRecord() bool {
	return k == KindClass || k == KindStruct
}

// IsMember reports whether the kind only appears inside a record.
func (k DeclKind) IsMember() bool {
	switch k {
	case KindMethod, KindConstructor, KindDestructor, KindOperator:
		return true
	}
	return false
}

// IsCallable reports whether the kind projects to a BoundFunction.
func (k DeclKind) IsCallable() bool {
	return k == KindFunction || k.IsMember()
}

// Version is the originating library major/minor version.
type Version struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor" yaml:"minor"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// IsZero reports whether no version was declared.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0
}

// Access is a C++ access specifier.
type Access string

const (
	AccessPublic    Access = "public"
	AccessProtected Access = "protected"
	AccessPrivate   Access = "private"
)

// Representation lets a record override the projection policy.
type Representation string

const (
	// ReprAuto applies the projection policy unchanged.
	ReprAuto Representation = ""
	// ReprOpaque forces an opaque handle.
	ReprOpaque Representation = "opaque"
	// ReprBytes mirrors the measured size and alignment without fields.
	ReprBytes Representation = "bytes"
)

// Library identifies the C++ library a model describes.
type Library struct {
	Name    string  `json:"name" yaml:"name"`                         // used for file names and the global-scope root
	Prefix  string  `json:"prefix,omitempty" yaml:"prefix,omitempty"` // API macro prefix, defaults to upper-cased Name
	Version Version `json:"version" yaml:"version"`
	// Includes are the C++ headers the generated shim includes.
	Includes []string `json:"includes,omitempty" yaml:"includes,omitempty"`
}

// APIPrefix returns the macro prefix used in rendered headers.
func (l Library) APIPrefix() string {
	if l.Prefix != "" {
		return l.Prefix
	}
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(l.Name))
}

// Model is the read-only declaration model handed over by the C++ analysis
// collaborator. Decls are in the collaborator's stable enumeration order.
type Model struct {
	Library Library `json:"library" yaml:"library"`
	Decls   []Decl  `json:"decls" yaml:"decls"`
}

// ABI is a measured size and alignment for a record, in bytes.
type ABI struct {
	Size  int `json:"size" yaml:"size"`
	Align int `json:"align" yaml:"align"`
}

// Field is a data member of a record.
type Field struct {
	Name   string  `json:"name" yaml:"name"`
	Type   TypeRef `json:"type" yaml:"type"`
	Access Access  `json:"access,omitempty" yaml:"access,omitempty"`
}

// Base is a base class of a record.
type Base struct {
	Type   TypeRef `json:"type" yaml:"type"`
	Access Access  `json:"access,omitempty" yaml:"access,omitempty"`
}

// Param is a callable parameter.
type Param struct {
	Name string  `json:"name" yaml:"name"`
	Type TypeRef `json:"type" yaml:"type"`
}

// EnumConstant is a named enumerator. Values are signed 64-bit; an unsigned
// constant above math.MaxInt64 cannot be modeled and the loaders reject it.
type EnumConstant struct {
	Name  string `json:"name" yaml:"name"`
	Value int64  `json:"value" yaml:"value"`
}

// Decl is one C++ declaration.
type Decl struct {
	Kind         DeclKind  `json:"kind" yaml:"kind"`
	Name         string    `json:"name" yaml:"name"`
	Namespace    []string  `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Version      Version   `json:"version" yaml:"version"`
	TemplateArgs []TypeRef `json:"template_args,omitempty" yaml:"template_args,omitempty"`
	Alias        string    `json:"alias,omitempty" yaml:"alias,omitempty"` // short name, e.g. "V3f"

	// Records
	Fields  []Field        `json:"fields,omitempty" yaml:"fields,omitempty"`
	Bases   []Base         `json:"bases,omitempty" yaml:"bases,omitempty"`
	Members []Decl         `json:"members,omitempty" yaml:"members,omitempty"`
	Align   int            `json:"align,omitempty" yaml:"align,omitempty"` // explicit alignas
	Packed  bool           `json:"packed,omitempty" yaml:"packed,omitempty"`
	Repr    Representation `json:"repr,omitempty" yaml:"repr,omitempty"`
	ABI     *ABI           `json:"abi,omitempty" yaml:"abi,omitempty"`

	// Enums
	Constants []EnumConstant `json:"constants,omitempty" yaml:"constants,omitempty"`
	Width     int            `json:"width,omitempty" yaml:"width,omitempty"` // underlying width in bits, 0 = smallest

	// Callables
	Params   []Param  `json:"params,omitempty" yaml:"params,omitempty"`
	Return   *TypeRef `json:"return,omitempty" yaml:"return,omitempty"`
	Static   bool     `json:"static,omitempty" yaml:"static,omitempty"`
	Const    bool     `json:"const,omitempty" yaml:"const,omitempty"`
	NoExcept bool     `json:"noexcept,omitempty" yaml:"noexcept,omitempty"`
	Virtual  bool     `json:"virtual,omitempty" yaml:"virtual,omitempty"`
	Operator string   `json:"operator,omitempty" yaml:"operator,omitempty"` // C++ spelling, e.g. "+="
}

// Ref returns a TypeRef naming this record or enum declaration.
func (d *Decl) Ref() TypeRef {
	return TypeRef{
		Kind:      RefNamed,
		Namespace: d.Namespace,
		Name:      d.Name,
		Version:   d.Version,
		Args:      d.TemplateArgs,
	}
}

// Qualified returns the C++ spelling of the declaration, e.g.
// "Imath::Vec3<float>". Members are qualified by their record.
func (d *Decl) Qualified() string {
	return qualify(d.Namespace, d.Name, d.TemplateArgs)
}

// MemberPath returns the C++ spelling of a member of record d.
func (d *Decl) MemberPath(member *Decl) string {
	name := member.Name
	switch member.Kind {
	case KindConstructor:
		name = d.Name
	case KindDestructor:
		name = "~" + d.Name
	case KindOperator:
		name = "operator" + member.Operator
		if op := member.Operator; op != "" && op[0] >= 'a' && op[0] <= 'z' {
			name = "operator " + member.Operator
		}
	}
	return d.Qualified() + "::" + name
}

// HasVirtual reports whether the record or any member is virtual.
func (d *Decl) HasVirtual() bool {
	if d.Virtual {
		return true
	}
	for i := range d.Members {
		if d.Members[i].Virtual {
			return true
		}
	}
	return false
}

// Throws reports whether calling the declaration may raise a native exception.
// Constructors and destructors are always treated as throwing.
func (d *Decl) Throws() bool {
	if d.Kind == KindConstructor || d.Kind == KindDestructor {
		return true
	}
	return !d.NoExcept
}

func qualify(namespace []string, name string, args []TypeRef) string {
	var b strings.Builder
	for _, ns := range namespace {
		b.WriteString(ns)
		b.WriteString("::")
	}
	b.WriteString(name)
	if len(args) > 0 {
		b.WriteByte('<')
		for i, a := range args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte('>')
	}
	return b.String()
}

// Index maps the C++ spelling of every record and enum to its declaration.
// The first declaration wins; duplicates are a validation error upstream.
func (m *Model) Index() map[string]*Decl {
	idx := make(map[string]*Decl, len(m.Decls))
	for i := range m.Decls {
		d := &m.Decls[i]
		if d.Kind != KindEnum && !d.Kind.IsRecord() {
			continue
		}
		key := d.Qualified()
		if _, ok := idx[key]; !ok {
			idx[key] = d
		}
	}
	return idx
}
