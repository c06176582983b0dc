package render

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flatbind/internal/emit"
	"github.com/roach88/flatbind/internal/ir"
)

var v10 = ir.Version{Major: 1, Minor: 0}

func ref(r ir.TypeRef) *ir.TypeRef { return &r }

func geoModel() *ir.Model {
	geo := []string{"geo"}
	point := ir.NamedRef(geo, "Point")
	axis := ir.NamedRef(geo, "Axis")
	double := ir.BuiltinRef("double")
	return &ir.Model{
		Library: ir.Library{Name: "geo", Version: v10, Includes: []string{"geo/geo.hpp"}},
		Decls: []ir.Decl{
			{Kind: ir.KindStruct, Namespace: geo, Name: "Box", Version: v10,
				Fields: []ir.Field{{Name: "lo", Type: point}, {Name: "hi", Type: point}}},
			{Kind: ir.KindStruct, Namespace: geo, Name: "Point", Version: v10, Alias: "Pt",
				Fields: []ir.Field{{Name: "x", Type: double}, {Name: "y", Type: double}},
				Members: []ir.Decl{
					{Kind: ir.KindConstructor, Params: []ir.Param{{Name: "x", Type: double}, {Name: "y", Type: double}}},
					{Kind: ir.KindMethod, Name: "length", Const: true, NoExcept: true, Return: ref(double)},
				}},
			{Kind: ir.KindEnum, Namespace: geo, Name: "Axis", Version: v10,
				Constants: []ir.EnumConstant{{Name: "X", Value: 0}, {Name: "Y", Value: 1}}},
			{Kind: ir.KindClass, Namespace: geo, Name: "Path", Version: v10,
				Fields: []ir.Field{{Name: "_impl", Type: ir.PointerTo(ir.BuiltinRef("void"), false), Access: ir.AccessPrivate}},
				ABI:    &ir.ABI{Size: 8, Align: 8},
				Members: []ir.Decl{
					{Kind: ir.KindConstructor},
					{Kind: ir.KindDestructor},
					{Kind: ir.KindMethod, Name: "add", Params: []ir.Param{{Name: "p", Type: ir.ReferenceTo(point, true)}}},
					{Kind: ir.KindMethod, Name: "at", Const: true,
						Params: []ir.Param{{Name: "i", Type: ir.BuiltinRef("size_t")}},
						Return: ref(ir.ReferenceTo(point, true))},
				}},
			{Kind: ir.KindFunction, Namespace: geo, Name: "distance", Version: v10, NoExcept: true,
				Params: []ir.Param{{Name: "a", Type: ir.ReferenceTo(point, true)}, {Name: "b", Type: ir.ReferenceTo(point, true)}},
				Return: ref(double)},
			{Kind: ir.KindFunction, Namespace: geo, Name: "flip", Version: v10, NoExcept: true,
				Params: []ir.Param{{Name: "a", Type: axis}}, Return: ref(axis)},
		},
	}
}

func geoOutput(t *testing.T) *ir.Output {
	t.Helper()
	out, err := emit.Emit(geoModel(), emit.Options{})
	require.NoError(t, err)
	return out
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestHeaderGolden(t *testing.T) {
	newGoldie(t).Assert(t, "geo_header", Header(geoOutput(t)))
}

func TestShimGolden(t *testing.T) {
	newGoldie(t).Assert(t, "geo_shim", Shim(geoOutput(t)))
}

func TestHeaderDefinesContainedRecordsFirst(t *testing.T) {
	h := string(Header(geoOutput(t)))
	point := strings.Index(h, "struct geo_1_0__Point_t {")
	box := strings.Index(h, "struct geo_1_0__Box_t {")
	require.NotEqual(t, -1, point)
	require.NotEqual(t, -1, box)
	assert.Less(t, point, box)
}

func TestContractAtEveryBridgedSite(t *testing.T) {
	out := geoOutput(t)
	h, s := string(Header(out)), string(Shim(out))

	bridged := 0
	for _, f := range out.Functions() {
		if f.Throws {
			bridged++
		}
	}
	assert.Equal(t, 5, bridged)
	assert.Equal(t, bridged, strings.Count(h, "reading return_ without checking the status is undefined"))
	assert.Equal(t, bridged, strings.Count(s, "reading return_ without checking the status is undefined"))
	assert.Equal(t, bridged, strings.Count(s, "catch (...)"))
}

func TestHeaderBytesAndExplicitAlignment(t *testing.T) {
	m := &ir.Model{Library: ir.Library{Name: "simd", Version: v10}, Decls: []ir.Decl{
		{Kind: ir.KindStruct, Name: "M44", Version: v10, Repr: ir.ReprBytes, ABI: &ir.ABI{Size: 64, Align: 16}},
		{Kind: ir.KindStruct, Name: "V4", Version: v10, Align: 16,
			Fields: []ir.Field{{Name: "x", Type: ir.BuiltinRef("float")}}},
	}}
	out, err := emit.Emit(m, emit.Options{})
	require.NoError(t, err)

	h := string(Header(out))
	assert.Contains(t, h, "    SIMD_ALIGNAS(16) unsigned char _inner[64];")
	assert.Contains(t, h, "    SIMD_ALIGNAS(16) float x;")
	assert.Contains(t, h, `SIMD_STATIC_ASSERT(sizeof(simd_1_0__0__V4_t) == 16, "V4: size");`)
}

func TestMappingJSON(t *testing.T) {
	out := geoOutput(t)
	data, err := Mapping(out)
	require.NoError(t, err)

	var table struct {
		Library     string   `json:"library"`
		Fingerprint string   `json:"fingerprint"`
		Symbols     []string `json:"symbols"`
		Entries     []struct {
			Identifier string `json:"identifier"`
			Path       string `json:"path"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &table))
	assert.Equal(t, "geo", table.Library)
	assert.Equal(t, ir.MustFingerprint(out), table.Fingerprint)
	assert.Len(t, table.Symbols, 8)
	require.Len(t, table.Entries, 12)
	assert.Equal(t, "geo_1_0__Path__at", table.Entries[9].Identifier)
	assert.Equal(t, "geo::Path::at", table.Entries[9].Path)

	again, err := Mapping(geoOutput(t))
	require.NoError(t, err)
	assert.Equal(t, data, again, "mapping is byte-identical across runs")
}

func TestWrite(t *testing.T) {
	files, err := Render(geoOutput(t))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := files.Write(dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for _, name := range []string{"geo.h", "geo.cpp", "geo-mapping.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	got, err := os.ReadFile(filepath.Join(dir, "geo.h"))
	require.NoError(t, err)
	assert.Equal(t, files.Header, got)
}
