// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package paths

import (
	"path/filepath"
	"strings"

	"github.com/ManuGH/clipmp3/internal/apperr"
	"github.com/ManuGH/clipmp3/internal/platform/fs"
)

// ErrNotInDownloads rejects reveal requests outside the downloads folder.
var ErrNotInDownloads = apperr.InvalidInput("File is not in the downloads folder")

// ValidateDownloadsItem confines input to downloadsDir after resolving
// symlinks. The file itself need not exist any more.
func ValidateDownloadsItem(input, downloadsDir string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrPathRequired
	}
	if downloadsDir == "" || !filepath.IsAbs(input) {
		return "", ErrNotInDownloads
	}

	resolved, err := fs.ConfineAbsPath(downloadsDir, input)
	if err != nil {
		return "", ErrNotInDownloads
	}
	return resolved, nil
}
