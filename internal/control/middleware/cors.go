// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strings"

	controlhttp "github.com/ManuGH/clipmp3/internal/control/http"
	platformnet "github.com/ManuGH/clipmp3/internal/platform/net"
)

// CORS returns a middleware that sets Cross-Origin Resource Sharing headers
// for an exact allow-list of origins. There is no wildcard and no
// credentials: the surface handle travels in a header, not a cookie.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if n, ok := platformnet.NormalizeOrigin(origin); ok {
			allowed[n] = true
		}
	}

	allowHeaders := strings.Join([]string{"Content-Type", controlhttp.HeaderRequestID, controlhttp.HeaderSurfaceHandle}, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if n, ok := platformnet.NormalizeOrigin(origin); ok && allowed[n] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
				w.Header().Set("Access-Control-Expose-Headers", "Retry-After, "+controlhttp.HeaderRequestID)
				w.Header().Set("Access-Control-Max-Age", "600")
			}

			// Always set Vary: Origin to prevent cache poisoning/confusion
			vary := w.Header().Get("Vary")
			if vary == "" {
				w.Header().Set("Vary", "Origin, Access-Control-Request-Method, Access-Control-Request-Headers")
			} else if !strings.Contains(vary, "Origin") {
				w.Header().Set("Vary", vary+", Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Allow", "GET, POST, OPTIONS")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
