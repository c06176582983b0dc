package ir

// ProjectionKind identifies how a type crosses the boundary.
type ProjectionKind string

const (
	// ProjOpaque is a zero-sized marker only ever referenced by address.
	ProjOpaque ProjectionKind = "opaque"
	// ProjMirrored is a struct whose layout is reproduced on both sides.
	ProjMirrored ProjectionKind = "mirrored"
	// ProjScalarEnum is a fixed-width integer wrapper.
	ProjScalarEnum ProjectionKind = "enum"
	// ProjTemplate is one concrete template instantiation.
	ProjTemplate ProjectionKind = "template"
	// ProjScalar is a builtin scalar.
	ProjScalar ProjectionKind = "scalar"
	// ProjPointer is an address of another projection.
	ProjPointer ProjectionKind = "pointer"
	// ProjVoid is the absence of a value.
	ProjVoid ProjectionKind = "void"
)

// ProjectedType is the boundary representation of a type. Projections are
// memoized per run, so two references to the same type share one pointer.
type ProjectedType struct {
	Kind  ProjectionKind `json:"kind"`
	Ident string         `json:"ident"` // C type name
	Decl  *Decl          `json:"-"`

	Size  int `json:"size"`
	Align int `json:"align"`

	// ProjMirrored
	Fields        []ProjectedField `json:"fields,omitempty"`
	Bytes         bool             `json:"bytes,omitempty"`          // layout known, fields unknown
	ExplicitAlign bool             `json:"explicit_align,omitempty"` // alignment exceeds the natural one

	// ProjScalarEnum
	Width     int                 `json:"width,omitempty"` // bits
	Signed    bool                `json:"signed,omitempty"`
	Constants []ProjectedConstant `json:"constants,omitempty"`

	// ProjTemplate
	Base string           `json:"base,omitempty"` // C++ spelling of the template
	Args []*ProjectedType `json:"-"`
	Repr *ProjectedType   `json:"repr,omitempty"` // ProjOpaque or ProjMirrored

	// ProjPointer
	Elem  *ProjectedType `json:"-"`
	Const bool           `json:"const,omitempty"`

	// ProjScalar
	Builtin *Builtin `json:"-"`
}

// ProjectedField is one mirrored field with its explicit offset.
type ProjectedField struct {
	Name   string         `json:"name"`
	Type   *ProjectedType `json:"-"`
	Offset int            `json:"offset"`
	Size   int            `json:"size"`
	Align  int            `json:"align"`
}

// ProjectedConstant is one named enum value.
type ProjectedConstant struct {
	Name  string `json:"name"`
	Ident string `json:"ident"`
	Value int64  `json:"value"`
}

// Layout returns the projection that determines the layout: the wrapped
// representation for template instances, the projection itself otherwise.
func (p *ProjectedType) Layout() *ProjectedType {
	if p.Kind == ProjTemplate && p.Repr != nil {
		return p.Repr
	}
	return p
}

// IsOpaque reports whether values of the type may only cross by address.
func (p *ProjectedType) IsOpaque() bool {
	return p.Layout().Kind == ProjOpaque
}

// IsRecord reports whether the projection stands for a class or struct.
func (p *ProjectedType) IsRecord() bool {
	k := p.Layout().Kind
	return k == ProjOpaque || k == ProjMirrored
}

// IsVoid reports whether the projection is void.
func (p *ProjectedType) IsVoid() bool {
	return p == nil || p.Kind == ProjVoid
}

// Accepts reports whether v is one of the enum's named values.
func (p *ProjectedType) Accepts(v int64) bool {
	for _, c := range p.Constants {
		if c.Value == v {
			return true
		}
	}
	return false
}

// Constant returns the named enum constant.
func (p *ProjectedType) Constant(name string) (ProjectedConstant, bool) {
	for _, c := range p.Constants {
		if c.Name == name {
			return c, true
		}
	}
	return ProjectedConstant{}, false
}

// Field returns the named mirrored field.
func (p *ProjectedType) Field(name string) (ProjectedField, bool) {
	for _, f := range p.Layout().Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ProjectedField{}, false
}
