package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/clipmp3/internal/apperr"
	controlhttp "github.com/ManuGH/clipmp3/internal/control/http"
	"github.com/ManuGH/clipmp3/internal/log"
)

// Write writes an RFC 7807 problem details response.
//
// Semantics:
//   - type: Canonical machine identifier (e.g. "clip/invalid_input").
//   - title: Human-readable short label (e.g. "Bad Request").
//   - code: Stable machine-readable short code (e.g. "INVALID_INPUT").
//   - detail: The message shown to the user, verbatim.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	if r == nil {
		log.L().Error().Str("type", problemType).Int("status", status).Msg("problem.Write called with nil request")
	}

	instance := ""
	reqID := ""
	if r != nil {
		instance = r.URL.EscapedPath()
		reqID = log.RequestIDFromContext(r.Context())
	}
	if reqID == "" {
		reqID = w.Header().Get(controlhttp.HeaderRequestID)
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if reqID != "" {
		res[controlhttp.JSONKeyRequestID] = reqID
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance != "" {
		res["instance"] = instance
	}

	// Add extensions (Extras) at top level, protecting reserved keys.
	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code":
			log.L().Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	if reqID != "" {
		w.Header().Set(controlhttp.HeaderRequestID, reqID)
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().
			Err(err).
			Str("type", problemType).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}

// WriteError renders err through the apperr taxonomy. Only the safe message
// reaches the body; unclassified errors become a generic internal error.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	Write(w, r, status, "clip/"+typeSuffix(kind), http.StatusText(status), kind.String(), apperr.Message(err), nil)
}

func typeSuffix(k apperr.Kind) string {
	switch k {
	case apperr.KindUnauthorized:
		return "unauthorized"
	case apperr.KindInvalidInput:
		return "invalid_input"
	case apperr.KindUpstreamFailure:
		return "upstream_failure"
	case apperr.KindResourceNotFound:
		return "not_found"
	case apperr.KindUserCanceled:
		return "canceled"
	default:
		return "internal"
	}
}
