// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	controlhttp "github.com/ManuGH/clipmp3/internal/control/http"
	"github.com/ManuGH/clipmp3/internal/control/surface"
	platformnet "github.com/ManuGH/clipmp3/internal/platform/net"
)

// CallerContext identifies the sender of one privileged call: the surface
// handle it presented and the origin of the document it has loaded.
type CallerContext struct {
	Handle   string
	Location string
}

// CallerFromRequest extracts the CallerContext from r. The location is the
// Origin header, or the origin of the Referer when Origin is absent.
func CallerFromRequest(r *http.Request) CallerContext {
	if r == nil {
		return CallerContext{}
	}
	loc := strings.TrimSpace(r.Header.Get("Origin"))
	if loc == "" {
		loc = strings.TrimSpace(r.Header.Get("Referer"))
	}
	return CallerContext{
		Handle:   strings.TrimSpace(r.Header.Get(controlhttp.HeaderSurfaceHandle)),
		Location: loc,
	}
}

// Authenticator decides whether a caller is the application's own main
// surface showing the application's own UI.
type Authenticator struct {
	surfaces *surface.Registry

	mu      sync.RWMutex
	allowed map[string]struct{}
}

// NewAuthenticator builds an Authenticator for the given registry and the
// exact set of origins the main surface may have loaded.
func NewAuthenticator(surfaces *surface.Registry, origins []string) (*Authenticator, error) {
	if surfaces == nil {
		return nil, fmt.Errorf("surface registry is required")
	}
	allowed, err := normalizeOrigins(origins)
	if err != nil {
		return nil, err
	}
	return &Authenticator{surfaces: surfaces, allowed: allowed}, nil
}

// SetOrigins replaces the allow-list. The daemon calls it once its listener
// is bound so that the packaged origin names the address actually served.
// On error the previous list stays in effect.
func (a *Authenticator) SetOrigins(origins []string) error {
	allowed, err := normalizeOrigins(origins)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.allowed = allowed
	a.mu.Unlock()
	return nil
}

func normalizeOrigins(origins []string) (map[string]struct{}, error) {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		n, ok := platformnet.NormalizeOrigin(o)
		if !ok {
			return nil, fmt.Errorf("invalid allowed origin %q", o)
		}
		allowed[n] = struct{}{}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("at least one allowed origin is required")
	}
	return allowed, nil
}

// IsAllowedSender requires both an exact handle match and an exact origin
// match. It has no side effects.
func (a *Authenticator) IsAllowedSender(c CallerContext) bool {
	if a == nil {
		return false
	}
	handleOK := a.surfaces.Matches(c.Handle)
	origin, ok := platformnet.NormalizeOrigin(c.Location)
	if !ok {
		return false
	}
	a.mu.RLock()
	_, originOK := a.allowed[origin]
	a.mu.RUnlock()
	return handleOK && originOK
}

// AllowedOrigins returns the normalized allow-list, sorted.
func (a *Authenticator) AllowedOrigins() []string {
	a.mu.RLock()
	out := make([]string, 0, len(a.allowed))
	for o := range a.allowed {
		out = append(out, o)
	}
	a.mu.RUnlock()
	sort.Strings(out)
	return out
}
