// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package http holds the wire-level names shared by the HTTP packages and
// serves the bundled UI.
package http

// Canonical Header Names
const (
	// HeaderRequestID is the canonical header for request correlation.
	HeaderRequestID = "X-Request-ID"

	// HeaderSurfaceHandle carries the main UI surface handle on every
	// privileged call.
	HeaderSurfaceHandle = "X-Surface-Handle"
)

// Canonical JSON Field Names
const (
	// JSONKeyRequestID is the canonical JSON key for request correlation in DTOs.
	JSONKeyRequestID = "requestId"
)
