package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIdentifier(t *testing.T) {
	tests := []struct {
		ident string
		want  DecodeResult
	}{
		{"Imath_2_5__Vec3__1float__3_t", DecodeResult{Kind: "record", Path: "Imath::Vec3<float>", Version: "2.5"}},
		{"Imath_2_5__Order_e", DecodeResult{Kind: "enum", Path: "Imath::Order", Version: "2.5"}},
		{"Imath_2_5__Vec3__1float__3__dot", DecodeResult{Kind: "symbol", Path: "Imath::Vec3<float>::dot", Version: "2.5"}},
		{"Imath_2_5__Order__Three", DecodeResult{Kind: "symbol", Path: "Imath::Order::Three", Version: "2.5"}},
		{"Imath_2_5__abs_1", DecodeResult{Kind: "symbol", Path: "Imath::abs", Version: "2.5", Overload: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			got, err := decodeIdentifier(tt.ident)
			require.NoError(t, err)
			tt.want.Identifier = tt.ident
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeIdentifierRejects(t *testing.T) {
	for _, ident := range []string{"", "Imath", "Imath_2_5", "Imath_2_5__abs_0", "Imath_2_5__abs_01"} {
		t.Run(ident, func(t *testing.T) {
			_, err := decodeIdentifier(ident)
			assert.Error(t, err)
		})
	}
}

func TestDecodeCommandText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewDecodeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"Imath_2_5__abs_1"})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "Imath_2_5__abs_1 symbol")
	assert.Contains(t, output, "path:     Imath::abs")
	assert.Contains(t, output, "version:  2.5")
	assert.Contains(t, output, "overload: 1")
}

func TestDecodeCommandJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewDecodeCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"Imath_2_5__Order_e"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string       `json:"status"`
		Data   DecodeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "enum", resp.Data.Kind)
	assert.Equal(t, "Imath::Order", resp.Data.Path)
}

func TestDecodeCommandRejects(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewDecodeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"not_an_identifier"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error ["+ErrCodeDecode+"]")
}
