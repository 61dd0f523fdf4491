// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pipeline

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestNewJobID(t *testing.T) {
	id := NewJobID()
	assert.Regexp(t, regexp.MustCompile(`^clip-[0-9a-f]{32}$`), id)
	assert.NotEqual(t, id, NewJobID())
}

func TestLocateArtifact_TieBreak(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	touch(t, filepath.Join(dir, "clip-1-input.webm"), base)
	touch(t, filepath.Join(dir, "clip-1-input.m4a"), base.Add(time.Minute))
	touch(t, filepath.Join(dir, "clip-1-input.m4a.part"), base.Add(2*time.Minute))
	touch(t, filepath.Join(dir, "clip-2-input.opus"), base.Add(3*time.Minute))

	got, err := LocateArtifact(dir, "clip-1-input.", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip-1-input.m4a"), got, "newest complete candidate wins")

	touch(t, filepath.Join(dir, "clip-1-input.aac"), base.Add(time.Minute))
	got, err = LocateArtifact(dir, "clip-1-input.", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip-1-input.aac"), got, "equal mtimes break by name")
}

func TestLocateArtifact_PreferredPath(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	now := time.Now()

	touch(t, filepath.Join(dir, "clip-1-input.webm"), now)
	touch(t, filepath.Join(dir, "clip-1-input.m4a"), now.Add(-time.Minute))
	touch(t, filepath.Join(other, "clip-1-input.mp3"), now)

	got, err := LocateArtifact(dir, "clip-1-input.", filepath.Join(dir, "clip-1-input.m4a"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip-1-input.m4a"), got)

	got, err = LocateArtifact(dir, "clip-1-input.", filepath.Join(other, "clip-1-input.mp3"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip-1-input.webm"), got, "paths outside dir are ignored")

	got, err = LocateArtifact(dir, "clip-1-input.", filepath.Join(dir, "clip-1-input.gone"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip-1-input.webm"), got)
}

func TestLocateArtifact_NotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "clip-1-input.dir"), 0o700))

	_, err := LocateArtifact(dir, "clip-1-input.", "")
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestSweepJob(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	for _, n := range []string{"clip-1-input.webm", "clip-1-input.webm.part", "clip-1-output.mp3", "clip-2-output.mp3", "notes.txt"} {
		touch(t, filepath.Join(dir, n), now)
	}

	n, err := SweepJob(dir, "clip-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.ElementsMatch(t, []string{"clip-2-output.mp3", "notes.txt"}, names(t, dir))

	n, err = SweepJob(dir, "")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = SweepJob(filepath.Join(dir, "missing"), "clip-2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepStale(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "clip-old-input.webm"), now.Add(-48*time.Hour))
	touch(t, filepath.Join(dir, "clip-new-input.webm"), now)
	touch(t, filepath.Join(dir, "clipmp3.lock"), now.Add(-48*time.Hour))

	n, err := SweepStale(dir, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ElementsMatch(t, []string{"clip-new-input.webm", "clipmp3.lock"}, names(t, dir))
}

func names(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func TestTransitions(t *testing.T) {
	assert.NoError(t, checkTransition(StateValidating, StateAcquiring))
	assert.NoError(t, checkTransition(StateValidating, StateConverting))
	assert.NoError(t, checkTransition(StateFinalizing, StateDone))
	for _, s := range []State{StateValidating, StateAcquiring, StateConverting, StateFinalizing} {
		assert.NoError(t, checkTransition(s, StateFailed), s)
	}

	assert.Error(t, checkTransition(StateAcquiring, StateDone))
	assert.Error(t, checkTransition(StateDone, StateFailed))
	assert.Error(t, checkTransition(StateFailed, StateValidating))
	assert.True(t, StateDone.Terminal())
	assert.False(t, StateConverting.Terminal())
}
