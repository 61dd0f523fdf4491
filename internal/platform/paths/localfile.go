// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package paths

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/clipmp3/internal/apperr"
	"github.com/ManuGH/clipmp3/internal/platform/fs"
)

var (
	ErrPathRequired   = apperr.InvalidInput("File path is required.")
	ErrPathExtension  = apperr.InvalidInput("Only MP3 and MP4 files are allowed.")
	ErrPathNotAllowed = apperr.InvalidInput("File path is not in an allowed directory.")
	ErrFileNotFound   = apperr.NotFound("File not found")
	ErrNotAFile       = apperr.NotFound("Path is not a file")
)

var allowedMediaExt = map[string]struct{}{
	".mp3": {},
	".mp4": {},
}

// LocalPath is an absolute, symlink-resolved path to an existing regular
// media file under one of the allowed bases. Only ValidateLocalFilePath
// constructs non-zero values.
type LocalPath struct {
	path string
}

func (p LocalPath) String() string {
	return p.path
}

// IsZero reports whether p was never validated.
func (p LocalPath) IsZero() bool {
	return p.path == ""
}

// HasAllowedMediaExt reports whether name ends in .mp3 or .mp4 (any case).
func HasAllowedMediaExt(name string) bool {
	_, ok := allowedMediaExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ValidateLocalFilePath confines a user-supplied path to the allowed bases
// and checks that it names an existing MP3/MP4 file. The existence check is
// point-in-time; the file may change before it is opened.
func ValidateLocalFilePath(input string, src BaseSource) (LocalPath, error) {
	if strings.TrimSpace(input) == "" {
		return LocalPath{}, ErrPathRequired
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return LocalPath{}, ErrPathRequired
	}
	if !HasAllowedMediaExt(abs) {
		return LocalPath{}, ErrPathExtension
	}

	resolved, err := fs.Resolve(abs)
	if err != nil {
		return LocalPath{}, err
	}
	// A symlink named .mp3 must not smuggle in another file type.
	if !HasAllowedMediaExt(resolved) {
		return LocalPath{}, ErrPathExtension
	}

	if !withinAnyBase(src.Bases(), resolved) {
		return LocalPath{}, ErrPathNotAllowed
	}

	switch err := fs.IsRegularFile(resolved); {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		return LocalPath{}, ErrFileNotFound
	case errors.Is(err, fs.ErrNotRegular):
		return LocalPath{}, ErrNotAFile
	default:
		return LocalPath{}, err
	}

	return LocalPath{path: resolved}, nil
}

// withinAnyBase matches the resolved path against each base in both its
// cleaned and its symlink-resolved spelling (macOS /var vs /private/var).
func withinAnyBase(bases []string, resolved string) bool {
	for _, base := range bases {
		cleanBase := filepath.Clean(base)
		if fs.Within(cleanBase, resolved) {
			return true
		}
		if realBase, err := fs.Resolve(cleanBase); err == nil && fs.Within(realBase, resolved) {
			return true
		}
	}
	return false
}
