// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ManuGH/clipmp3/internal/control/http/problem"
	"github.com/ManuGH/clipmp3/internal/metrics"
)

// RateLimiter is a per-IP sliding window limiter whose limits can be swapped
// at runtime (config reload). Counters restart on every Update.
type RateLimiter struct {
	state atomic.Pointer[limiterState]
}

type limiterState struct {
	rps    int
	burst  int
	window time.Duration
	limit  func(http.Handler) http.Handler
}

// NewRateLimiter returns a limiter allowing rps requests per second with the
// given burst. rps <= 0 disables limiting.
func NewRateLimiter(rps, burst int) *RateLimiter {
	l := &RateLimiter{}
	l.Update(rps, burst)
	return l
}

// Update replaces the active limits.
func (l *RateLimiter) Update(rps, burst int) {
	st := &limiterState{rps: rps, burst: burst}
	if rps > 0 {
		requests := burst
		if requests < rps {
			requests = rps
		}
		st.window = time.Duration(float64(requests) / float64(rps) * float64(time.Second))
		st.limit = httprate.Limit(
			requests,
			st.window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				metrics.IncRateLimited()
				w.Header().Set("Retry-After", strconv.Itoa(int(st.window.Seconds()+0.999)))
				problem.Write(w, r, http.StatusTooManyRequests, "clip/rate_limited", "Too Many Requests", "RATE_LIMITED",
					"Too many requests. Please try again later.", nil)
			}),
		)
	}
	l.state.Store(st)
}

// Limits returns the active rps and burst.
func (l *RateLimiter) Limits() (rps, burst int) {
	st := l.state.Load()
	return st.rps, st.burst
}

// Handler applies the currently active limits.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := l.state.Load()
		if st.limit == nil {
			next.ServeHTTP(w, r)
			return
		}
		st.limit(next).ServeHTTP(w, r)
	})
}
