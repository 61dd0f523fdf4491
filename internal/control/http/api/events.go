// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ManuGH/clipmp3/internal/apperr"
	"github.com/ManuGH/clipmp3/internal/control/http/problem"
	"github.com/ManuGH/clipmp3/internal/log"
)

// handleEvents streams processing-phase notifications as server-sent
// events. The UI reads it with fetch so that the surface handle header can
// be sent; EventSource cannot set headers.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Events == nil {
		problem.WriteError(w, r, apperr.New(apperr.KindInternal, "Event stream unavailable"))
		return
	}
	rc := http.NewResponseController(w)

	sub, err := s.deps.Events.Subscribe(r.Context())
	if err != nil {
		problem.WriteError(w, r, apperr.Wrap(apperr.KindInternal, "Event stream unavailable", err))
		return
	}
	defer func() { _ = sub.Close() }()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	logger := s.logger(r)
	logger.Debug().Str(log.FieldEvent, "events.subscribed").Msg("event stream opened")

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: processing-phase\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
