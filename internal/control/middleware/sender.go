// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	"github.com/ManuGH/clipmp3/internal/apperr"
	"github.com/ManuGH/clipmp3/internal/control/auth"
	"github.com/ManuGH/clipmp3/internal/control/http/problem"
	"github.com/ManuGH/clipmp3/internal/log"
	"github.com/ManuGH/clipmp3/internal/metrics"
	platformnet "github.com/ManuGH/clipmp3/internal/platform/net"
)

// SenderChecker is satisfied by *auth.Authenticator.
type SenderChecker interface {
	IsAllowedSender(auth.CallerContext) bool
}

// RequireSender gates every privileged route. A rejected caller gets the
// generic Unauthorized problem and nothing else; the reason is only logged.
func RequireSender(checker SenderChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := auth.CallerFromRequest(r)
			if checker == nil || !checker.IsAllowedSender(caller) {
				metrics.IncSenderRejected()
				logger := log.WithComponentFromContext(r.Context(), "auth")
				logger.Warn().
					Str(log.FieldEvent, "auth.rejected").
					Str(log.FieldOrigin, platformnet.SanitizeURL(caller.Location)).
					Bool("handle_present", caller.Handle != "").
					Str("path", r.URL.Path).
					Msg("privileged call rejected")
				problem.WriteError(w, r, apperr.Unauthorized())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
