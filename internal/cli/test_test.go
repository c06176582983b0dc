package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// copyScenarios copies the scenario fixtures next to a models directory
// so scenario model paths resolve.
func copyScenarios(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"models", "scenarios"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}
	models, err := filepath.Glob("testdata/models/*.yaml")
	require.NoError(t, err)
	for _, m := range models {
		copyFile(t, m, filepath.Join(root, "models", filepath.Base(m)))
	}
	for _, n := range names {
		copyFile(t, filepath.Join("testdata/scenarios", n), filepath.Join(root, "scenarios", n))
	}
	return filepath.Join(root, "scenarios")
}

func copyFile(t *testing.T, from, to string) {
	t.Helper()
	data, err := os.ReadFile(from)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(to, data, 0644))
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	output, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, output, "No scenarios found")
}

func TestTestCommandRunsScenarios(t *testing.T) {
	output, err := runTestCommand(t, "text", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, output, "✓ imath")
	assert.Contains(t, output, "✓ invalid")
	assert.Contains(t, output, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, output, "✓ All scenarios passed")
}

func TestTestCommandJSON(t *testing.T) {
	output, err := runTestCommand(t, "json", "testdata/scenarios")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
}

func TestTestCommandFilter(t *testing.T) {
	output, err := runTestCommand(t, "text", "testdata/scenarios", "--filter", "imath*")
	require.NoError(t, err)
	assert.Contains(t, output, "1 passed, 0 failed, 1 total")
	assert.NotContains(t, output, "invalid")
}

func TestTestCommandBadFilter(t *testing.T) {
	_, err := runTestCommand(t, "text", "testdata/scenarios", "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := copyScenarios(t, "imath.yaml")
	failing := `name: wrong-count
description: "miscounted symbols"
model: ../models/imath.yaml
assertions:
  - type: symbol_count
    count: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong-count.yaml"), []byte(failing), 0644))

	output, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ wrong-count")
	assert.Contains(t, output, "7 exported symbols")
	assert.Contains(t, output, "1 passed, 1 failed, 2 total")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := copyScenarios(t, "imath.yaml")
	golden := filepath.Join(dir, "golden", "imath.golden")
	require.NoError(t, os.MkdirAll(filepath.Dir(golden), 0755))
	require.NoError(t, os.WriteFile(golden, []byte(`{"codes":[],"entries":[],"scenario_name":"imath"}`), 0644))

	output, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, output, "do not match golden file")
}

func TestTestCommandUpdateGolden(t *testing.T) {
	dir := copyScenarios(t, "imath.yaml", "invalid.yaml")

	output, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, output, "✓ imath (golden updated)")

	written, err := os.ReadFile(filepath.Join(dir, "golden", "imath.golden"))
	require.NoError(t, err)
	fixture, err := os.ReadFile("testdata/scenarios/golden/imath.golden")
	require.NoError(t, err)
	assert.Equal(t, string(fixture), string(written))

	invalid, err := os.ReadFile(filepath.Join(dir, "golden", "invalid.golden"))
	require.NoError(t, err)
	assert.Equal(t, `{"codes":["E104"],"entries":[],"scenario_name":"invalid"}`, string(invalid))

	// A second run compares against what was written.
	_, err = runTestCommand(t, "text", dir)
	require.NoError(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "imath.golden"), goldenFilePath(filepath.Join("scenarios", "imath.yaml")))
}
