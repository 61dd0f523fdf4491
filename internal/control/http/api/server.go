// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api implements the privileged HTTP entry points the UI calls.
// Every route under /api is gated by the sender check; /healthz is not.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ManuGH/clipmp3/internal/control/middleware"
	"github.com/ManuGH/clipmp3/internal/log"
	"github.com/ManuGH/clipmp3/internal/media"
	"github.com/ManuGH/clipmp3/internal/pipeline"
	"github.com/ManuGH/clipmp3/internal/pipeline/bus"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 64 << 10

// Converter runs the media pipeline.
type Converter interface {
	Run(ctx context.Context, req media.DownloadRequest) (pipeline.Result, error)
	VideoInfo(ctx context.Context, rawURL string) (pipeline.MediaInfo, error)
	LocalFileInfo(ctx context.Context, rawPath string) (pipeline.MediaInfo, error)
}

// Desktop opens native dialogs and the file manager.
type Desktop interface {
	OpenMedia(ctx context.Context) (path string, ok bool, err error)
	Reveal(ctx context.Context, path string) error
}

// EventSource feeds the processing-phase stream.
type EventSource interface {
	Subscribe(ctx context.Context) (bus.Subscriber, error)
}

// SurfaceCloser retires the main surface handle.
type SurfaceCloser interface {
	Invalidate()
	Active() bool
}

// Deps are the collaborators of the API server.
type Deps struct {
	Converter Converter
	Desktop   Desktop
	Events    EventSource
	Surfaces  SurfaceCloser
	// Sender gates /api/*. A nil checker rejects every call.
	Sender middleware.SenderChecker
	// Limiter throttles /api/* per client before the sender check. Nil
	// disables throttling.
	Limiter func(http.Handler) http.Handler
	// DownloadsDir confines show-item-in-folder.
	DownloadsDir string
	// Lifetime bounds conversion jobs. A job survives a dropped UI
	// connection but not daemon shutdown. Nil means the request context.
	Lifetime context.Context
	// Heartbeat is the SSE keep-alive interval; zero uses the default.
	Heartbeat time.Duration
	Logger    zerolog.Logger
}

// Server serves the privileged API.
type Server struct {
	deps      Deps
	heartbeat time.Duration
	started   time.Time
	version   string
}

// NewServer wires the handlers. version is reported by /healthz.
func NewServer(deps Deps, version string) *Server {
	hb := deps.Heartbeat
	if hb <= 0 {
		hb = 15 * time.Second
	}
	return &Server{deps: deps, heartbeat: hb, started: time.Now(), version: version}
}

// Mount registers the routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		if s.deps.Limiter != nil {
			api.Use(s.deps.Limiter)
		}
		api.Use(middleware.RequireSender(s.deps.Sender))

		api.Post("/video-info", s.handleVideoInfo)
		api.Post("/open-file-dialog", s.handleOpenFileDialog)
		api.Post("/local-file-info", s.handleLocalFileInfo)
		api.Post("/download", s.handleDownload)
		api.Post("/show-item-in-folder", s.handleShowItemInFolder)
		api.Post("/surface/close", s.handleSurfaceClose)
		api.Get("/events", s.handleEvents)
	})
}

func (s *Server) logger(r *http.Request) zerolog.Logger {
	return log.WithContext(r.Context(), s.deps.Logger)
}

// jobContext detaches a conversion from the request and ties it to the
// daemon lifetime instead. Request-scoped values (request id) are kept.
func (s *Server) jobContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.deps.Lifetime == nil {
		return context.WithCancel(r.Context())
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	stop := context.AfterFunc(s.deps.Lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
