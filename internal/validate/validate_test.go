// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_AccumulatesErrors(t *testing.T) {
	v := New()
	assert.True(t, v.IsValid())
	assert.NoError(t, v.Err())

	v.Port("listen", 0)
	v.OneOf("delivery.mode", "email", []string{"dialog", "buffer"})
	require.False(t, v.IsValid())

	err := v.Err()
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors(), 2)
	assert.Equal(t, "listen", verr.Errors()[0].Field)
	assert.Contains(t, err.Error(), "; ")
}

func TestValidator_Ranges(t *testing.T) {
	v := New()
	v.Range("a", 5, 1, 10)
	v.FloatRange("b", 0.5, 0, 1)
	v.NotEmpty("d", "x")
	assert.True(t, v.IsValid())

	v.Range("a", 11, 1, 10)
	v.FloatRange("b", 1.5, 0, 1)
	v.FloatRange("b", math.NaN(), 0, 1)
	v.NotEmpty("d", "  ")
	assert.Len(t, v.Errors(), 4)
}

func TestValidator_AbsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	tests := []struct {
		name      string
		path      string
		mayCreate bool
		wantErr   bool
	}{
		{"existing", dir, false, false},
		{"missing may create", filepath.Join(dir, "new"), true, false},
		{"missing must exist", filepath.Join(dir, "new"), false, true},
		{"relative", "relative/dir", true, true},
		{"empty", "", true, true},
		{"file", file, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.AbsDir("dir", tt.path, tt.mayCreate)
			assert.Equal(t, tt.wantErr, !v.IsValid())
		})
	}
}

func TestValidator_LoopbackAddr(t *testing.T) {
	for addr, ok := range map[string]bool{
		"127.0.0.1:8787": true,
		"localhost:8787": true,
		"[::1]:8787":     true,
		"0.0.0.0:8787":   false,
		"10.0.0.5:8787":  false,
		"127.0.0.1:0":    false,
		"127.0.0.1":      false,
		"127.0.0.1:http": false,
	} {
		v := New()
		v.LoopbackAddr("listen", addr)
		assert.Equal(t, ok, v.IsValid(), addr)
	}
}

func TestValidator_LoopbackOrigin(t *testing.T) {
	for origin, ok := range map[string]bool{
		"http://localhost:5173":     true,
		"http://127.0.0.1:5173":     true,
		"https://[::1]:8443":        true,
		"http://example.com:5173":   false,
		"file:///index.html":        false,
		"http://localhost:5173/app": false,
		"http://u@localhost:5173":   false,
		"localhost:5173":            false,
	} {
		v := New()
		v.LoopbackOrigin("dev_origins", origin)
		assert.Equal(t, ok, v.IsValid(), origin)
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, lvl)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}
