package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flatbind/internal/ir"
)

func TestReadEntries_EmissionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, _, err := s.WriteRun(ctx, testOutput(t, 5))
	require.NoError(t, err)

	rows, err := s.ReadEntries(ctx, run.ID)
	require.NoError(t, err)

	var ids []string
	for i, r := range rows {
		assert.Equal(t, i, r.Position)
		ids = append(ids, r.Identifier)
	}
	assert.Equal(t, []string{
		"Imath_2_5__Point_t",
		"Imath_2_5__Point__ctor",
		"Imath_2_5__abs",
		"Imath_2_5__abs_1",
	}, ids)

	ctor := rows[1]
	assert.Equal(t, ir.EntryFunction, ctor.Kind)
	assert.Equal(t, "Imath::Point::Point", ctor.Path)
	assert.Equal(t, string(ir.KindConstructor), ctor.DeclKind)
	assert.Equal(t, "2.5", ctor.Version, "members file under the library version")
}

func TestReadEntries_DetailIsMappingEntry(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, _, err := s.WriteRun(ctx, testOutput(t, 5))
	require.NoError(t, err)
	rows, err := s.ReadEntries(ctx, run.ID)
	require.NoError(t, err)

	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(rows[0].Detail), &detail))
	assert.Equal(t, "Imath_2_5__Point_t", detail["identifier"])
	projection := detail["projection"].(map[string]any)
	assert.Equal(t, "mirrored", projection["kind"])
	assert.EqualValues(t, 8, projection["size"])
}

func TestLookup(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, _, err := s.WriteRun(ctx, testOutput(t, 5))
	require.NoError(t, err)
	b, _, err := s.WriteRun(ctx, testOutput(t, 6))
	require.NoError(t, err)

	rows, err := s.Lookup(ctx, "Imath_2_5__abs_1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].RunID)
	assert.Equal(t, "Imath::abs", rows[0].Path)

	rows, err = s.Lookup(ctx, "Imath_2_6__Point_t")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].RunID)

	rows, err = s.Lookup(ctx, "Imath_9_9__nothing")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestLookupDecl_Overloads(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.WriteRun(ctx, testOutput(t, 5))
	require.NoError(t, err)

	rows, err := s.LookupDecl(ctx, ir.DeclID("Imath::abs", ir.Version{Major: 2, Minor: 5}))
	require.NoError(t, err)
	require.Len(t, rows, 2, "both overloads come from the same declaration path")
	assert.Equal(t, "Imath_2_5__abs", rows[0].Identifier)
	assert.Equal(t, "Imath_2_5__abs_1", rows[1].Identifier)
}

func TestLatestRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.LatestRun(ctx, "imath")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.WriteRun(ctx, testOutput(t, 5))
	require.NoError(t, err)
	b, _, err := s.WriteRun(ctx, testOutput(t, 6))
	require.NoError(t, err)

	latest, err := s.LatestRun(ctx, "imath")
	require.NoError(t, err)
	assert.Equal(t, b, latest)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestReadMapping_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadMapping(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
