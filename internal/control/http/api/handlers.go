// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"time"

	"github.com/ManuGH/clipmp3/internal/apperr"
	"github.com/ManuGH/clipmp3/internal/control/http/problem"
	"github.com/ManuGH/clipmp3/internal/log"
	"github.com/ManuGH/clipmp3/internal/media"
	"github.com/ManuGH/clipmp3/internal/metrics"
	"github.com/ManuGH/clipmp3/internal/platform/paths"
)

var ErrFileDialogFailed = apperr.New(apperr.KindInternal, "Could not open the file dialog")

type videoInfoRequest struct {
	URL string `json:"url"`
}

type filePathRequest struct {
	FilePath string `json:"filePath"`
}

type openFileDialogResponse struct {
	Path *string `json:"path"`
}

// downloadResponse is {filename, filePath} in dialog mode and
// {filename, buffer} in buffer mode. Buffer is base64 on the wire.
type downloadResponse struct {
	Filename string `json:"filename"`
	FilePath string `json:"filePath,omitempty"`
	Buffer   []byte `json:"buffer,omitempty"`
}

// healthResponse lets a launcher notice that the main surface has closed
// and stop the daemon. It never carries the handle.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
	Surface string `json:"surface"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := "closed"
	if s.deps.Surfaces != nil && s.deps.Surfaces.Active() {
		state = "active"
	}
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: s.version,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
		Surface: state,
	})
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	var req videoInfoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.WriteError(w, r, err)
		return
	}
	info, err := s.deps.Converter.VideoInfo(r.Context(), req.URL)
	if err != nil {
		problem.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleOpenFileDialog(w http.ResponseWriter, r *http.Request) {
	if err := decodeJSON(w, r, &struct{}{}); err != nil {
		problem.WriteError(w, r, err)
		return
	}
	path, ok, err := s.deps.Desktop.OpenMedia(r.Context())
	if err != nil {
		logger := s.logger(r)
		logger.Error().Err(err).
			Str(log.FieldEvent, "dialog.open_failed").
			Msg("file dialog failed")
		problem.WriteError(w, r, apperr.Wrap(ErrFileDialogFailed.Kind, ErrFileDialogFailed.Message, err))
		return
	}
	resp := openFileDialogResponse{}
	if ok {
		resp.Path = &path
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleLocalFileInfo(w http.ResponseWriter, r *http.Request) {
	var req filePathRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.WriteError(w, r, err)
		return
	}
	info, err := s.deps.Converter.LocalFileInfo(r.Context(), req.FilePath)
	if err != nil {
		problem.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req media.DownloadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		metrics.IncValidationRejected("params")
		problem.WriteError(w, r, err)
		return
	}

	ctx, cancel := s.jobContext(r)
	defer cancel()
	res, err := s.deps.Converter.Run(ctx, req)
	if err != nil {
		problem.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, downloadResponse{
		Filename: res.Filename,
		FilePath: res.FilePath,
		Buffer:   res.Buffer,
	})
}

func (s *Server) handleShowItemInFolder(w http.ResponseWriter, r *http.Request) {
	var req filePathRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.WriteError(w, r, err)
		return
	}
	path, err := paths.ValidateDownloadsItem(req.FilePath, s.deps.DownloadsDir)
	if err != nil {
		metrics.IncValidationRejected("downloads")
		problem.WriteError(w, r, err)
		return
	}
	if err := s.deps.Desktop.Reveal(r.Context(), path); err != nil {
		logger := s.logger(r)
		logger.Warn().Err(err).
			Str(log.FieldEvent, "reveal.failed").
			Msg("could not open file manager")
		problem.WriteError(w, r, apperr.Wrap(apperr.KindInternal, "Could not open the folder", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSurfaceClose(w http.ResponseWriter, r *http.Request) {
	if s.deps.Surfaces != nil {
		s.deps.Surfaces.Invalidate()
	}
	logger := s.logger(r)
	logger.Info().
		Str(log.FieldEvent, "surface.closed").
		Msg("main surface closed, privileged calls disabled")
	w.WriteHeader(http.StatusNoContent)
}
