package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/symbol"
)

var v25 = ir.Version{Major: 2, Minor: 5}

func newProjector(t *testing.T, opts Options, decls ...ir.Decl) (*Projector, *ir.Model) {
	t.Helper()
	m := &ir.Model{Library: ir.Library{Name: "imath", Version: v25}, Decls: decls}
	return New(symbol.NewEncoder(m), opts), m
}

func field(name string, ref ir.TypeRef) ir.Field {
	return ir.Field{Name: name, Type: ref}
}

func vec3Decl(arg string) ir.Decl {
	a := ir.BuiltinRef(arg)
	return ir.Decl{
		Kind: ir.KindClass, Namespace: []string{"Imath"}, Name: "Vec3", Version: v25,
		TemplateArgs: []ir.TypeRef{a},
		Fields:       []ir.Field{field("x", a), field("y", a), field("z", a)},
	}
}

func TestMirroredLayout(t *testing.T) {
	p, m := newProjector(t, Options{}, ir.Decl{
		Kind: ir.KindStruct, Name: "Pair", Version: v25,
		Fields: []ir.Field{field("a", ir.BuiltinRef("int")), field("b", ir.BuiltinRef("float"))},
	})

	pt, err := p.Decl(&m.Decls[0])
	require.NoError(t, err)
	assert.Equal(t, ir.ProjMirrored, pt.Kind)
	assert.Equal(t, "imath_2_5__0__Pair_t", pt.Ident)
	assert.Equal(t, 8, pt.Size)
	assert.Equal(t, 4, pt.Align)
	require.Len(t, pt.Fields, 2)
	assert.Equal(t, 0, pt.Fields[0].Offset)
	assert.Equal(t, 4, pt.Fields[1].Offset)
}

func TestMirroredPadding(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		fields  []ir.Field
		offsets []int
		size    int
		align   int
	}{
		{
			name:    "char then double",
			fields:  []ir.Field{field("c", ir.BuiltinRef("char")), field("d", ir.BuiltinRef("double"))},
			offsets: []int{0, 8},
			size:    16,
			align:   8,
		},
		{
			name:    "char then double on ilp32",
			target:  ir.TargetILP32,
			fields:  []ir.Field{field("c", ir.BuiltinRef("char")), field("d", ir.BuiltinRef("double"))},
			offsets: []int{0, 4},
			size:    12,
			align:   4,
		},
		{
			name:    "trailing padding",
			fields:  []ir.Field{field("i", ir.BuiltinRef("int")), field("c", ir.BuiltinRef("char"))},
			offsets: []int{0, 4},
			size:    8,
			align:   4,
		},
		{
			name:    "pointer field",
			fields:  []ir.Field{field("c", ir.BuiltinRef("char")), field("p", ir.PointerTo(ir.BuiltinRef("int"), true))},
			offsets: []int{0, 8},
			size:    16,
			align:   8,
		},
		{
			name:    "long on llp64",
			target:  ir.TargetLLP64,
			fields:  []ir.Field{field("s", ir.BuiltinRef("short")), field("l", ir.BuiltinRef("long"))},
			offsets: []int{0, 4},
			size:    8,
			align:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ir.NewTarget(tt.target)
			require.NoError(t, err)
			p, m := newProjector(t, Options{Target: target}, ir.Decl{Kind: ir.KindStruct, Name: "S", Version: v25, Fields: tt.fields})

			pt, err := p.Decl(&m.Decls[0])
			require.NoError(t, err)
			var offsets []int
			for _, f := range pt.Fields {
				offsets = append(offsets, f.Offset)
			}
			assert.Equal(t, tt.offsets, offsets)
			assert.Equal(t, tt.size, pt.Size)
			assert.Equal(t, tt.align, pt.Align)
		})
	}
}

func TestNestedMirrored(t *testing.T) {
	p, m := newProjector(t, Options{},
		vec3Decl("float"),
		ir.Decl{
			Kind: ir.KindStruct, Namespace: []string{"Imath"}, Name: "Ray", Version: v25,
			Fields: []ir.Field{
				field("origin", ir.NamedRef([]string{"Imath"}, "Vec3", ir.BuiltinRef("float"))),
				field("t", ir.BuiltinRef("double")),
			},
		},
	)

	ray, err := p.Decl(&m.Decls[1])
	require.NoError(t, err)
	assert.Equal(t, 24, ray.Size)
	origin, ok := ray.Field("origin")
	require.True(t, ok)
	assert.Equal(t, ir.ProjTemplate, origin.Type.Kind)
	assert.Equal(t, 12, origin.Size)
	tf, _ := ray.Field("t")
	assert.Equal(t, 16, tf.Offset)
}

func TestMemoIsPointerIdentical(t *testing.T) {
	p, m := newProjector(t, Options{}, vec3Decl("float"))
	ref := ir.NamedRef([]string{"Imath"}, "Vec3", ir.BuiltinRef("float"))

	a, err := p.Ref(ref, "a")
	require.NoError(t, err)
	b, err := p.Ref(ref, "b")
	require.NoError(t, err)
	c, err := p.Decl(&m.Decls[0])
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Same(t, a, c)

	pa, err := p.Ref(ir.ReferenceTo(ref, true), "a")
	require.NoError(t, err)
	pb, err := p.Ref(ir.PointerTo(ref, true), "b")
	require.NoError(t, err)
	assert.Same(t, pa, pb, "const references and const pointers share one projection")
	assert.Equal(t, "const Imath_2_5__Vec3__1float__3_t*", pa.Ident)

	fa, _ := p.Ref(ir.BuiltinRef("float"), "x")
	fb, _ := p.Ref(ir.BuiltinRef("float"), "y")
	assert.Same(t, fa, fb)
}

func TestTemplateIsolation(t *testing.T) {
	p, m := newProjector(t, Options{}, vec3Decl("float"), vec3Decl("double"))

	f, err := p.Decl(&m.Decls[0])
	require.NoError(t, err)
	d, err := p.Decl(&m.Decls[1])
	require.NoError(t, err)

	assert.NotSame(t, f, d)
	assert.NotEqual(t, f.Ident, d.Ident)
	assert.Equal(t, "Imath::Vec3", f.Base)
	assert.Equal(t, f.Base, d.Base)
	assert.Equal(t, 12, f.Size)
	assert.Equal(t, 24, d.Size)
	require.Len(t, f.Args, 1)
	assert.Equal(t, "float", f.Args[0].Ident)
	assert.Equal(t, ir.ProjMirrored, f.Layout().Kind)
}

func TestOpaquePolicy(t *testing.T) {
	base := ir.Decl{Kind: ir.KindClass, Name: "Base", Version: v25, Fields: []ir.Field{field("x", ir.BuiltinRef("int"))}}
	tests := []struct {
		name string
		decl ir.Decl
	}{
		{"private field", ir.Decl{Kind: ir.KindClass, Name: "A", Version: v25,
			Fields: []ir.Field{{Name: "x", Type: ir.BuiltinRef("int"), Access: ir.AccessPrivate}}}},
		{"base class", ir.Decl{Kind: ir.KindClass, Name: "A", Version: v25,
			Bases:  []ir.Base{{Type: ir.NamedRef(nil, "Base")}},
			Fields: []ir.Field{field("y", ir.BuiltinRef("int"))}}},
		{"virtual method", ir.Decl{Kind: ir.KindClass, Name: "A", Version: v25,
			Fields:  []ir.Field{field("y", ir.BuiltinRef("int"))},
			Members: []ir.Decl{{Kind: ir.KindMethod, Name: "f", Virtual: true}}}},
		{"no fields", ir.Decl{Kind: ir.KindClass, Name: "A", Version: v25}},
		{"repr opaque", ir.Decl{Kind: ir.KindStruct, Name: "A", Version: v25, Repr: ir.ReprOpaque,
			Fields: []ir.Field{field("y", ir.BuiltinRef("int"))}}},
		{"opaque field", ir.Decl{Kind: ir.KindStruct, Name: "A", Version: v25,
			Fields: []ir.Field{field("h", ir.NamedRef(nil, "Hidden"))}}},
		{"reference field", ir.Decl{Kind: ir.KindStruct, Name: "A", Version: v25,
			Fields: []ir.Field{field("r", ir.ReferenceTo(ir.BuiltinRef("int"), false))}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hidden := ir.Decl{Kind: ir.KindClass, Name: "Hidden", Version: v25,
				Fields: []ir.Field{{Name: "x", Type: ir.BuiltinRef("int"), Access: ir.AccessPrivate}}}
			p, m := newProjector(t, Options{}, tt.decl, base, hidden)

			pt, err := p.Decl(&m.Decls[0])
			require.NoError(t, err)
			assert.Equal(t, ir.ProjOpaque, pt.Kind)
			assert.True(t, pt.IsOpaque())
			assert.Empty(t, pt.Fields)
		})
	}
}

func TestOpaqueFieldBehindPointerStaysMirrored(t *testing.T) {
	p, m := newProjector(t, Options{},
		ir.Decl{Kind: ir.KindStruct, Name: "Node", Version: v25, Fields: []ir.Field{
			field("value", ir.BuiltinRef("int")),
			field("next", ir.PointerTo(ir.NamedRef(nil, "Node"), false)),
		}},
	)
	pt, err := p.Decl(&m.Decls[0])
	require.NoError(t, err)
	assert.Equal(t, ir.ProjMirrored, pt.Kind)
	assert.Equal(t, 16, pt.Size)
}

func TestBytesRepresentation(t *testing.T) {
	p, m := newProjector(t, Options{},
		ir.Decl{Kind: ir.KindClass, Name: "Matrix", Version: v25, Repr: ir.ReprBytes,
			ABI:    &ir.ABI{Size: 64, Align: 16},
			Fields: []ir.Field{{Name: "m", Type: ir.BuiltinRef("float"), Access: ir.AccessPrivate}}},
		ir.Decl{Kind: ir.KindClass, Name: "Bad", Version: v25, Repr: ir.ReprBytes},
	)

	pt, err := p.Decl(&m.Decls[0])
	require.NoError(t, err)
	assert.Equal(t, ir.ProjMirrored, pt.Kind)
	assert.True(t, pt.Bytes)
	assert.Equal(t, 64, pt.Size)
	assert.Equal(t, 16, pt.Align)

	_, err = p.Decl(&m.Decls[1])
	var le *ir.LayoutError
	assert.ErrorAs(t, err, &le)
}

func TestLayoutErrors(t *testing.T) {
	ints := []ir.Field{field("a", ir.BuiltinRef("int")), field("b", ir.BuiltinRef("int"))}
	tests := []struct {
		name string
		decl ir.Decl
		msg  string
	}{
		{"packed", ir.Decl{Kind: ir.KindStruct, Name: "S", Version: v25, Packed: true, Fields: ints}, "packed"},
		{"non power of two", ir.Decl{Kind: ir.KindStruct, Name: "S", Version: v25, Align: 12, Fields: ints}, "power of two"},
		{"below natural", ir.Decl{Kind: ir.KindStruct, Name: "S", Version: v25, Align: 2, Fields: ints}, "natural alignment"},
		{"abi mismatch", ir.Decl{Kind: ir.KindStruct, Name: "S", Version: v25, ABI: &ir.ABI{Size: 12, Align: 4}, Fields: ints}, "measured"},
		{"self containment", ir.Decl{Kind: ir.KindStruct, Name: "S", Version: v25,
			Fields: []ir.Field{field("self", ir.NamedRef(nil, "S"))}}, "contains itself"},
		{"void field", ir.Decl{Kind: ir.KindStruct, Name: "S", Version: v25,
			Fields: []ir.Field{field("v", ir.BuiltinRef("void"))}}, "void"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m := newProjector(t, Options{}, tt.decl)
			_, err := p.Decl(&m.Decls[0])
			var le *ir.LayoutError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, ir.ErrCodeLayout, le.Code)
			assert.Contains(t, le.Message, tt.msg)
		})
	}
}

func TestLayoutErrorIsRemembered(t *testing.T) {
	p, m := newProjector(t, Options{}, ir.Decl{Kind: ir.KindStruct, Name: "S", Version: v25, Packed: true,
		Fields: []ir.Field{field("a", ir.BuiltinRef("int"))}})

	_, first := p.Decl(&m.Decls[0])
	require.Error(t, first)
	_, second := p.Decl(&m.Decls[0])
	assert.Same(t, first, second, "a failed declaration is not projected again")
}

func TestExplicitAlignment(t *testing.T) {
	p, m := newProjector(t, Options{}, ir.Decl{
		Kind: ir.KindStruct, Name: "V4", Version: v25, Align: 16,
		Fields: []ir.Field{field("x", ir.BuiltinRef("float")), field("y", ir.BuiltinRef("float")), field("z", ir.BuiltinRef("float"))},
	})
	pt, err := p.Decl(&m.Decls[0])
	require.NoError(t, err)
	assert.Equal(t, 16, pt.Align)
	assert.Equal(t, 16, pt.Size)
	assert.True(t, pt.ExplicitAlign)
}

func TestUnresolvedReference(t *testing.T) {
	p, _ := newProjector(t, Options{})
	_, err := p.Ref(ir.NamedRef([]string{"Imath"}, "Missing"), "Imath::f")
	var ue *ir.UnresolvedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Imath::f", ue.From)
}
