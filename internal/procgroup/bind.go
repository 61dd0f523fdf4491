// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup runs external tools in their own process group so that
// cancelling a job also stops the helpers a tool spawned.
package procgroup

import (
	"os/exec"
	"syscall"
	"time"
)

// DefaultWaitDelay bounds how long Wait blocks on a killed child's pipes.
const DefaultWaitDelay = 2 * time.Second

// Bind prepares a command built with exec.CommandContext: it starts in a new
// process group and context cancellation kills the whole group instead of
// only the leader.
func Bind(cmd *exec.Cmd, waitDelay time.Duration) {
	Set(cmd)
	cmd.Cancel = func() error {
		return Kill(cmd, syscall.SIGKILL)
	}
	if waitDelay <= 0 {
		waitDelay = DefaultWaitDelay
	}
	cmd.WaitDelay = waitDelay
}
