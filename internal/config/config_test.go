package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flatbind/internal/ir"
)

func TestLoadFile(t *testing.T) {
	cfg, err := Load("testdata/flatbind.yaml")
	require.NoError(t, err)

	assert.Equal(t, ir.TargetLLP64, cfg.Target)
	assert.True(t, cfg.AllowSignedEnums)
	assert.Equal(t, "build/bindings", cfg.Output)
	assert.Equal(t, "build/mapping.db", cfg.Database)
	require.Contains(t, cfg.Libraries, "imath")
	assert.Equal(t, "IMATH", cfg.Libraries["imath"].Prefix)

	opts, err := cfg.EmitOptions()
	require.NoError(t, err)
	assert.Equal(t, ir.TargetLLP64, opts.Target.Name)
	assert.True(t, opts.AllowSignedEnums)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "a named config file must exist")
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, ir.TargetLP64, cfg.Target)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.False(t, cfg.AllowSignedEnums)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("target: lp64\nsigned_enums: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signed_enums")
}

func TestParseCollectsInvalidSettings(t *testing.T) {
	_, err := Parse([]byte("target: ppc\nlibraries:\n  geo:\n    prefix: \"1GEO\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target")
	assert.Contains(t, err.Error(), "1GEO")
}

func TestApply(t *testing.T) {
	cfg, err := Load("testdata/flatbind.yaml")
	require.NoError(t, err)

	m := &ir.Model{Library: ir.Library{Name: "imath", Includes: []string{"Imath/ImathVec.h"}}}
	cfg.Apply(m)
	assert.Equal(t, "IMATH", m.Library.Prefix)
	assert.Equal(t, []string{"Imath/ImathVec.h", "Imath/ImathBox.h"}, m.Library.Includes)

	other := &ir.Model{Library: ir.Library{Name: "geo"}}
	cfg.Apply(other)
	assert.Empty(t, other.Library.Prefix)
	assert.Empty(t, other.Library.Includes)
}
