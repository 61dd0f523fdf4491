// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceLock(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireInstanceLock(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, LockFileName), first.Path())

	_, err = AcquireInstanceLock(dir)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, first.Release(context.Background()))

	again, err := AcquireInstanceLock(dir)
	require.NoError(t, err)
	require.NoError(t, again.Release(context.Background()))
}

func TestInstanceLock_MissingDir(t *testing.T) {
	_, err := AcquireInstanceLock(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
