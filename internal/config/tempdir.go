// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrepareTempDir creates the private working directory with mode 0700 and
// returns its symlink-resolved absolute path. Call it once at startup and
// pass the result by value.
func PrepareTempDir(dir string) (string, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), TempDirName)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	// MkdirAll leaves an existing directory's mode alone.
	if err := os.Chmod(abs, 0o700); err != nil {
		return "", fmt.Errorf("restrict temp dir: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve temp dir: %w", err)
	}
	return resolved, nil
}
