// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the clipmp3 daemon.
// Labels never carry job ids, URLs or paths.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipmp3_jobs_total",
		Help: "Conversion jobs by source kind and outcome.",
	}, []string{"source", "outcome"}) // outcome=done|failed|canceled

	jobsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clipmp3_jobs_in_flight",
		Help: "Conversion jobs currently running.",
	})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipmp3_job_phase_duration_seconds",
		Help:    "Time spent per job phase.",
		Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 300, 1200},
	}, []string{"phase"})

	toolRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipmp3_tool_runs_total",
		Help: "External tool invocations by tool and result.",
	}, []string{"tool", "result"}) // result=ok|error

	outputBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clipmp3_output_bytes",
		Help:    "Size of produced MP3 files.",
		Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
	})

	cleanupErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipmp3_cleanup_errors_total",
		Help: "Temp artifacts that could not be removed.",
	})

	sweptFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipmp3_swept_files_total",
		Help: "Temp artifacts removed by sweeps, by trigger.",
	}, []string{"trigger"}) // trigger=job_failed|startup

	eventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipmp3_events_dropped_total",
		Help: "Processing-phase events dropped for slow subscribers.",
	})
)

// JobStarted marks a job as in flight. The returned func records the outcome.
func JobStarted(source string) func(outcome string) {
	jobsInFlight.Inc()
	return func(outcome string) {
		jobsInFlight.Dec()
		jobsTotal.WithLabelValues(source, outcome).Inc()
	}
}

// ObservePhase records how long a job phase took.
func ObservePhase(phase string, d time.Duration) {
	phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordToolRun counts one external tool invocation.
func RecordToolRun(tool string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	toolRunsTotal.WithLabelValues(tool, result).Inc()
}

// ObserveOutputBytes records the size of a finished MP3.
func ObserveOutputBytes(n int64) {
	outputBytes.Observe(float64(n))
}

// IncCleanupError counts a failed temp artifact removal.
func IncCleanupError() {
	cleanupErrorsTotal.Inc()
}

// AddSwept counts removed temp artifacts.
func AddSwept(trigger string, n int) {
	if n > 0 {
		sweptFilesTotal.WithLabelValues(trigger).Add(float64(n))
	}
}

// IncEventDropped counts a phase event that no subscriber queue could take.
func IncEventDropped() {
	eventsDroppedTotal.Inc()
}
