// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package toolio

import (
	"errors"
	"fmt"
	"os/exec"
)

// ToolError describes a failed external tool run.
type ToolError struct {
	Tool     string
	ExitCode int // -1 when the tool never exited normally
	Detail   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError wraps the error returned by exec.Cmd.Wait or Run.
func NewToolError(tool string, err error, detail string) *ToolError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &ToolError{Tool: tool, ExitCode: code, Detail: detail, Err: err}
}
