// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pipeline

import "fmt"

// State is a conversion job's position in its lifecycle.
type State string

const (
	StateValidating State = "validating"
	StateAcquiring  State = "acquiring"
	StateConverting State = "converting"
	StateFinalizing State = "finalizing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Local sources skip acquisition. Every non-terminal state may fail.
var transitions = map[State][]State{
	StateValidating: {StateAcquiring, StateConverting, StateFailed},
	StateAcquiring:  {StateConverting, StateFailed},
	StateConverting: {StateFinalizing, StateFailed},
	StateFinalizing: {StateDone, StateFailed},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if !canTransition(from, to) {
		return fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	return nil
}
