// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName lives in the private temp directory. The sweeper only
// touches clip-* artifacts, so the lock file is never removed underneath us.
const LockFileName = ".clipmp3.lock"

// InstanceLock guards the temp directory against a second daemon sweeping
// the first one's in-flight artifacts.
type InstanceLock struct {
	fl *flock.Flock
}

// AcquireInstanceLock takes the lock without blocking. ErrAlreadyRunning
// means another process holds it.
func AcquireInstanceLock(dir string) (*InstanceLock, error) {
	fl := flock.New(filepath.Join(dir, LockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	return &InstanceLock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *InstanceLock) Path() string {
	return l.fl.Path()
}

// Release drops the lock. It has the ShutdownHook signature.
func (l *InstanceLock) Release(_ context.Context) error {
	return l.fl.Unlock()
}
