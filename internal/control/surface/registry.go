// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package surface tracks the one UI surface allowed to make privileged calls.
package surface

import (
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrAlreadyRegistered = errors.New("main surface already registered")
	ErrInvalidated       = errors.New("main surface was closed")
)

// Registry holds the main surface handle for the lifetime of the daemon. The
// handle is minted once by Register and cleared by Invalidate; it is never
// re-issued, so a closed window cannot be replaced by a new caller.
type Registry struct {
	mu          sync.RWMutex
	handle      string
	invalidated bool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register mints the main surface handle.
func (r *Registry) Register() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.invalidated {
		return "", ErrInvalidated
	}
	if r.handle != "" {
		return "", ErrAlreadyRegistered
	}
	r.handle = strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
	return r.handle, nil
}

// Invalidate forgets the handle. Every later Matches call fails.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handle = ""
	r.invalidated = true
}

// Active reports whether a main surface is currently registered.
func (r *Registry) Active() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handle != ""
}

// Matches reports whether got is exactly the registered handle, using a
// constant-time comparison. Empty values never match.
func (r *Registry) Matches(got string) bool {
	r.mu.RLock()
	expected := r.handle
	r.mu.RUnlock()

	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
