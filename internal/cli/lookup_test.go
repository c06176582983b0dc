package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flatbind/internal/store"
)

// recordedDB generates the imath model into a fresh database.
func recordedDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "mapping.db")
	_, err := executeGenerate(t, "text", "testdata/models/imath.yaml", "-o", dir, "--db", db)
	require.NoError(t, err)
	return db
}

func runLookupCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewLookupCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func runRunsCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRunsCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestLookupText(t *testing.T) {
	db := recordedDB(t)

	output, err := runLookupCommand(t, "text", "--db", db, "Imath_2_5__Rand32__dtor")
	require.NoError(t, err)
	assert.Contains(t, output, "Imath_2_5__Rand32__dtor (imath, run 1)")
	assert.Contains(t, output, "destructor Imath::Rand32::~Rand32 2.5")
}

func TestLookupJSON(t *testing.T) {
	db := recordedDB(t)

	output, err := runLookupCommand(t, "json", "--db", db, "Imath_2_5__Vec3__1float__3_t")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []LookupRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Data, 1)
	row := resp.Data[0]
	assert.Equal(t, "type", row.Kind)
	assert.Equal(t, "Imath::Vec3<float>", row.Path)

	var detail map[string]any
	require.NoError(t, json.Unmarshal(row.Detail, &detail), "detail is embedded JSON, not a string")
	assert.Equal(t, "Imath_2_5__Vec3__1float__3_t", detail["identifier"])
}

func TestLookupByDecl(t *testing.T) {
	db := recordedDB(t)

	st, err := store.Open(db)
	require.NoError(t, err)
	rows, err := st.Lookup(context.Background(), "Imath_2_5__abs")
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, rows, 1)

	output, err := runLookupCommand(t, "json", "--db", db, "--decl", rows[0].DeclID)
	require.NoError(t, err)

	var resp struct {
		Data []LookupRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Data, 2, "both overloads share the declaration")
	assert.Equal(t, "Imath_2_5__abs", resp.Data[0].Identifier)
	assert.Equal(t, "Imath_2_5__abs_1", resp.Data[1].Identifier)
}

func TestLookupNotRecorded(t *testing.T) {
	db := recordedDB(t)

	output, err := runLookupCommand(t, "text", "--db", db, "Imath_2_5__Vec2_t")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "not recorded")
}

func TestLookupMissingDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")

	output, err := runLookupCommand(t, "text", "--db", missing, "Imath_2_5__abs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "database not found")
	assert.NoFileExists(t, missing, "lookup never creates a database")
}

func TestLookupNoDatabaseConfigured(t *testing.T) {
	_, err := runLookupCommand(t, "text", "Imath_2_5__abs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database configured")
}

func TestRunsList(t *testing.T) {
	db := recordedDB(t)

	output, err := runRunsCommand(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, output, "  1  imath 2.5 (lp64)  10 entries")
}

func TestRunsLatestJSON(t *testing.T) {
	db := recordedDB(t)
	_, err := executeGenerate(t, "text", "testdata/models/imath.yaml", "-o", t.TempDir(), "--db", db, "--target", "ilp32")
	require.NoError(t, err)

	output, err := runRunsCommand(t, "json", "--db", db, "--library", "imath")
	require.NoError(t, err)

	var resp struct {
		Data []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(2), resp.Data[0].Seq)
	assert.Equal(t, "ilp32", resp.Data[0].Target)
}

func TestRunsUnknownLibrary(t *testing.T) {
	db := recordedDB(t)

	_, err := runRunsCommand(t, "text", "--db", db, "--library", "half")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
