// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

//go:embed all:dist
var uiFS embed.FS

// UIConfig configures the UI handler
type UIConfig struct {
	// Dir serves a built UI from disk. Empty uses the embedded placeholder.
	Dir string
}

// UIHandler serves the Web UI (SPA) with correct caching. Security headers
// come from the middleware stack. Unknown extension-less paths fall back to
// index.html so client-side routes survive a reload.
func UIHandler(cfg UIConfig) http.Handler {
	var root fs.FS
	if cfg.Dir != "" {
		root = os.DirFS(cfg.Dir)
	} else if sub, err := fs.Sub(uiFS, "dist"); err == nil {
		root = sub
	}
	if root == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "UI not available", http.StatusInternalServerError)
		})
	}
	fileServer := http.FileServer(http.FS(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		// Index.html should NOT be cached to ensure updates
		path := r.URL.Path
		isDocument := path == "/" || path == "/index.html" || path == "" || !strings.Contains(path, ".")
		if isDocument {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
			if path != "/" && path != "/index.html" {
				if _, err := fs.Stat(root, strings.TrimPrefix(path, "/")); err != nil {
					r2 := r.Clone(r.Context())
					r2.URL.Path = "/"
					fileServer.ServeHTTP(w, r2)
					return
				}
			}
		} else {
			// Hashed assets can be cached forever
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}

		fileServer.ServeHTTP(w, r)
	})
}
