// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDownloadsItem(t *testing.T) {
	downloads := t.TempDir()
	outside := t.TempDir()

	song := filepath.Join(downloads, "song.mp3")
	require.NoError(t, os.WriteFile(song, []byte("x"), 0o600))
	require.NoError(t, os.Symlink(outside, filepath.Join(downloads, "escape")))

	got, err := ValidateDownloadsItem(song, downloads)
	require.NoError(t, err)
	realSong, err := filepath.EvalSymlinks(song)
	require.NoError(t, err)
	assert.Equal(t, realSong, got)

	_, err = ValidateDownloadsItem(filepath.Join(downloads, "gone.mp3"), downloads)
	assert.NoError(t, err, "missing files still resolve through their parent")

	for _, bad := range []string{
		filepath.Join(outside, "song.mp3"),
		filepath.Join(downloads, "..", "song.mp3"),
		filepath.Join(downloads, "escape", "song.mp3"),
		"song.mp3",
	} {
		_, err := ValidateDownloadsItem(bad, downloads)
		assert.ErrorIs(t, err, ErrNotInDownloads, bad)
	}

	_, err = ValidateDownloadsItem("  ", downloads)
	assert.ErrorIs(t, err, ErrPathRequired)

	_, err = ValidateDownloadsItem(song, "")
	assert.ErrorIs(t, err, ErrNotInDownloads)
}
