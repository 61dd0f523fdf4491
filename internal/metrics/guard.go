// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	senderRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipmp3_sender_rejected_total",
		Help: "Privileged calls rejected by the sender check.",
	})

	validationRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipmp3_validation_rejected_total",
		Help: "Inputs rejected by a validator, by validator.",
	}, []string{"validator"}) // validator=url|path|params|source

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipmp3_rate_limited_total",
		Help: "Requests rejected by the API rate limiter.",
	})
)

// IncSenderRejected counts one rejected privileged call.
func IncSenderRejected() {
	senderRejectedTotal.Inc()
}

// IncValidationRejected counts one validator rejection.
func IncValidationRejected(validator string) {
	validationRejectedTotal.WithLabelValues(validator).Inc()
}

// IncRateLimited counts one 429.
func IncRateLimited() {
	rateLimitedTotal.Inc()
}
