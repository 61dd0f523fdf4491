// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Job attributes
	JobIDKey         = "job.id"
	JobSourceKey     = "job.source"
	JobPhaseKey      = "job.phase"
	JobDeliveryKey   = "job.delivery"
	JobOutcomeKey    = "job.outcome"
	JobDurationKey   = "job.duration_ms"
	MediaSpeedKey    = "media.speed"
	MediaTrimmedKey  = "media.trimmed"
	MediaOutBytesKey = "media.output_bytes"

	// Tool attributes
	ToolNameKey     = "tool.name"
	ToolExitCodeKey = "tool.exit_code"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// JobAttributes describes a conversion job at start.
func JobAttributes(jobID, source, delivery string, speed float64, trimmed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(JobIDKey, jobID),
		attribute.String(JobSourceKey, source),
		attribute.String(JobDeliveryKey, delivery),
		attribute.Float64(MediaSpeedKey, speed),
		attribute.Bool(MediaTrimmedKey, trimmed),
	}
}

// ToolAttributes describes one external tool run. A negative exit code is
// omitted (the tool never started or was killed).
func ToolAttributes(tool string, exitCode int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(ToolNameKey, tool)}
	if exitCode >= 0 {
		attrs = append(attrs, attribute.Int(ToolExitCodeKey, exitCode))
	}
	return attrs
}

// OutcomeAttributes records how a job ended.
func OutcomeAttributes(outcome string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(JobOutcomeKey, outcome),
		attribute.Int64(JobDurationKey, durationMS),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
