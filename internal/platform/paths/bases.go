// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package paths

import (
	"os"
	"runtime"
	"strings"
)

// DarwinVolumesRoot is where macOS mounts removable media.
const DarwinVolumesRoot = "/Volumes"

// BaseSource describes where local media may be read from. The fields are
// inputs; the actual base list is computed on every call to Bases so that a
// temp dir removed at runtime stops being an allowed root.
type BaseSource struct {
	// HomeDir overrides os.UserHomeDir when set (tests).
	HomeDir string
	// TempDir is the application's private temp directory.
	TempDir string
	// RemovableRoot overrides the platform default removable-media root.
	// Set to "-" to disable it.
	RemovableRoot string
	// GOOS overrides runtime.GOOS when set (tests).
	GOOS string
}

// Bases returns the directories a local source file may live under: the
// user's home directory, the private temp dir if it exists right now, and
// the removable-media root on platforms that have one.
func (s BaseSource) Bases() []string {
	var out []string

	home := strings.TrimSpace(s.HomeDir)
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}
	if home != "" {
		out = append(out, home)
	}

	if s.TempDir != "" {
		if info, err := os.Stat(s.TempDir); err == nil && info.IsDir() {
			out = append(out, s.TempDir)
		}
	}

	if root := s.removableRoot(); root != "" {
		out = append(out, root)
	}
	return out
}

func (s BaseSource) removableRoot() string {
	switch s.RemovableRoot {
	case "-":
		return ""
	case "":
		goos := s.GOOS
		if goos == "" {
			goos = runtime.GOOS
		}
		if goos == "darwin" {
			return DarwinVolumesRoot
		}
		return ""
	default:
		return s.RemovableRoot
	}
}
