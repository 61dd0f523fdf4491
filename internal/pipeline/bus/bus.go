// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus carries processing-phase notifications from running jobs to
// the UI event stream. Delivery is best effort.
package bus

import "context"

// Phases reported to the UI.
const (
	PhaseDownloading = "downloading"
	PhaseConverting  = "converting"
)

// Event is one processing-phase notification.
type Event struct {
	Phase   string   `json:"phase"`
	JobID   string   `json:"jobId"`
	Percent *float64 `json:"percent,omitempty"`
}

// Publisher is the side used by the orchestrator.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Subscriber receives events until Close.
type Subscriber interface {
	C() <-chan Event
	Close() error
}

// Bus fans events out to subscribers.
type Bus interface {
	Publisher
	Subscribe(ctx context.Context) (Subscriber, error)
}
