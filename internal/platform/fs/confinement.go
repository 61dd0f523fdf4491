// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path resolves outside every permitted root.
var ErrOutsideRoot = errors.New("path escapes root")

// ErrNotRegular is returned by IsRegularFile for directories, devices and the like.
var ErrNotRegular = errors.New("not a regular file")

// Resolve returns the absolute, cleaned form of path with symlinks evaluated.
// A missing leaf is resolved through its parent directory; when the parent is
// missing too, the cleaned absolute path is returned unchanged.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}

	if _, err := os.Lstat(abs); err == nil {
		real, err := filepath.EvalSymlinks(abs)
		if err != nil {
			// Existing entry that cannot be resolved (loop, permissions): fail closed.
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		return real, nil
	}

	dir := filepath.Dir(abs)
	if realDir, err := filepath.EvalSymlinks(dir); err == nil {
		return filepath.Join(realDir, filepath.Base(abs)), nil
	} else if _, statErr := os.Stat(dir); statErr == nil {
		return "", fmt.Errorf("failed to resolve parent path: %w", err)
	}
	return abs, nil
}

// Within reports whether target equals base or is nested below it. Both paths
// must already be absolute and cleaned; the comparison is separator bounded so
// /home/user never contains /home/userx.
func Within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}

// ConfineAbsPath resolves targetAbs and ensures the result is physically
// underneath the resolved root. The target must be absolute.
func ConfineAbsPath(rootAbs, targetAbs string) (string, error) {
	if strings.Contains(targetAbs, "\\") {
		return "", fmt.Errorf("path contains backslash: %s", targetAbs)
	}
	if !filepath.IsAbs(targetAbs) {
		return "", fmt.Errorf("target path must be absolute: %s", targetAbs)
	}

	realRoot, err := Resolve(rootAbs)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realPath, err := Resolve(targetAbs)
	if err != nil {
		return "", err
	}
	if !Within(realRoot, realPath) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, realPath)
	}
	return realPath, nil
}

// IsRegularFile checks if path exists and is a regular file (not directory, device, etc).
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return nil
}
