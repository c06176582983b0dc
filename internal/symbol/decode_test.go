package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flatbind/internal/ir"
)

func TestDecodeRoundTrip(t *testing.T) {
	vec3i := vec3Name(builtin("int"))
	names := []Name{
		vec3Name(builtin("float")).Child("dot"),
		vec3Name(builtin("float")).Child("setValue").WithOverload(3),
		{Root: "Imath", Version: v25, Scope: []Segment{{Name: "Box", Args: []Arg{{Kind: ArgNamed, Named: &vec3i}}}, {Name: "extendBy"}}},
		{Root: "lib", Version: ir.Version{Major: 10, Minor: 0}, Scope: []Segment{{Name: "free_function"}}},
		{Root: "_detail", Version: v25, Scope: []Segment{{Name: "impl_"}, {Name: "get_2"}}},
		{Root: "_detail", Version: v25, Scope: []Segment{{Name: "get_2"}}, Overload: 4},
		{Root: "ns", Version: v25, Scope: []Segment{
			{Name: "Map", Args: []Arg{
				{Kind: ArgPointer, Elem: &Arg{Kind: ArgNamed, Named: &vec3i}},
				builtin("unsigned long long"),
			}},
			{Name: "op_index", Synthetic: true},
		}, Overload: 1},
		{Root: "ns", Version: v25, Scope: []Segment{{Name: "Fn", Args: []Arg{builtin("size_t")}}}, Overload: 2},
		{Root: "Imath", Global: true, Version: v25, Scope: []Segment{{Name: "abs"}}, Overload: 1},
		{Root: "ns", Version: v25, Scope: []Segment{{Name: "Box", Args: []Arg{{Kind: ArgNamed, Named: &Name{
			Root: "ns", Global: true, Version: v25, Scope: []Segment{{Name: "Point"}},
		}}}}}},
		{Root: "geo", Version: v25, Scope: []Segment{{Name: "S"}, {Name: "ctor", Synthetic: true}}, Overload: 1},
		{Root: "geo", Version: v25, Scope: []Segment{{Name: "S"}, {Name: "ctor"}}},
		{Root: "geo", Version: v25, Scope: []Segment{{Name: "S"}, {Name: "op_iadd"}}, Overload: 2},
		{Root: "geo", Version: v25, Scope: []Segment{{Name: "Foo_t"}}},
		{Root: "geo", Version: v25, Scope: []Segment{{Name: "Order"}, {Name: "dtor"}}},
	}

	for _, n := range names {
		ident := Encode(n)
		t.Run(ident, func(t *testing.T) {
			back, err := Decode(ident)
			require.NoError(t, err)
			assert.True(t, n.Equal(back), "decoded %+v", back)
			assert.Equal(t, ident, Encode(back))
		})
	}
}

func TestDecodeType(t *testing.T) {
	n, kind, err := DecodeType("Imath_2_5__Vec3__1float__3_t")
	require.NoError(t, err)
	assert.Equal(t, ir.KindClass, kind)
	assert.True(t, vec3Name(builtin("float")).Equal(n))

	n, kind, err = DecodeType("Imath_2_5__Color_e")
	require.NoError(t, err)
	assert.Equal(t, ir.KindEnum, kind)
	assert.Equal(t, "Color", n.Scope[0].Name)

	_, _, err = DecodeType("Imath_2_5__Color")
	assert.Error(t, err)
	_, _, err = DecodeType("Imath_2_5__Color_1_t")
	assert.ErrorContains(t, err, "overload")
}

func TestDecodeRejects(t *testing.T) {
	bad := []string{
		"",
		"Imath",                           // no version
		"Imath_2_5",                       // no scope
		"Imath_02_5__Vec3",                // non-canonical version
		"Imath_2_5__Vec3__1float",         // unterminated arguments
		"Imath_2_5__Vec3__1float__3x",     // trailing garbage
		"Imath_2_5__Vec3_0",               // zero overload is implicit
		"Imath_2_5__43_Vec",               // escape of a raw name
		"Imath_2_5__Fixed__1cn0__3",       // negative zero
		"Imath_2_5__Fixed__1c07__3",       // leading zero
		"Imath_2_5__Vec3__1nosuchtype__3", // neither builtin nor versioned
		"Imath_2_5__0",                    // global marker without scope
		"geo_2_5__Foo_t",                  // source name with a type suffix left raw
		"geo_2_5__S__op_iadd_e",           // made-up names never carry a type suffix
		"geo_2_5__S__45_dtorx",            // escape of a raw, unreserved name
	}
	for _, ident := range bad {
		t.Run(ident, func(t *testing.T) {
			_, err := Decode(ident)
			var de *DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestNamePath(t *testing.T) {
	vec3i := vec3Name(builtin("int"))
	tests := []struct {
		name Name
		want string
	}{
		{vec3Name(builtin("float")).Child("dot").WithOverload(2), "Imath::Vec3<float>::dot"},
		{Name{Root: "ns", Version: v25, Scope: []Segment{{Name: "Map", Args: []Arg{
			{Kind: ArgPointer, Const: true, Elem: &Arg{Kind: ArgNamed, Named: &vec3i}},
			{Kind: ArgConstant, Value: -3},
		}}}}, "ns::Map<const Imath::Vec3<int>*, -3>"},
		{Name{Root: "geo", Version: v25, Scope: []Segment{{Name: "area"}}}, "geo::area"},
		{Name{Root: "geo", Global: true, Version: v25, Scope: []Segment{{Name: "area"}}}, "::area"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.name.Path())
		})
	}
}
