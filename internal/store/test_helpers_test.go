package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/flatbind/internal/emit"
	"github.com/roach88/flatbind/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err, "Open() failed")
	t.Cleanup(func() { s.Close() })
	return s
}

func ref(r ir.TypeRef) *ir.TypeRef { return &r }

// testModel is a small library with a record, a constructor and an
// overloaded free function.
func testModel(minor int) *ir.Model {
	v := ir.Version{Major: 2, Minor: minor}
	return &ir.Model{
		Library: ir.Library{Name: "imath", Version: v},
		Decls: []ir.Decl{
			{
				Kind: ir.KindStruct, Namespace: []string{"Imath"}, Name: "Point", Version: v,
				Fields: []ir.Field{{Name: "x", Type: ir.BuiltinRef("int")}, {Name: "y", Type: ir.BuiltinRef("float")}},
				Members: []ir.Decl{
					{Kind: ir.KindConstructor, Params: []ir.Param{{Name: "x", Type: ir.BuiltinRef("int")}}},
				},
			},
			{Kind: ir.KindFunction, Namespace: []string{"Imath"}, Name: "abs", Version: v, NoExcept: true,
				Params: []ir.Param{{Name: "x", Type: ir.BuiltinRef("int")}}, Return: ref(ir.BuiltinRef("int"))},
			{Kind: ir.KindFunction, Namespace: []string{"Imath"}, Name: "abs", Version: v, NoExcept: true,
				Params: []ir.Param{{Name: "x", Type: ir.BuiltinRef("float")}}, Return: ref(ir.BuiltinRef("float"))},
		},
	}
}

func testOutput(t *testing.T, minor int) *ir.Output {
	t.Helper()
	out, err := emit.Emit(testModel(minor), emit.Options{})
	require.NoError(t, err)
	return out
}
