// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/clipmp3/internal/infra/toolio"
	"github.com/ManuGH/clipmp3/internal/log"
	"github.com/ManuGH/clipmp3/internal/metrics"
	"github.com/ManuGH/clipmp3/internal/procgroup"
)

const (
	toolFFmpeg     = "ffmpeg"
	stderrRingSize = 50
)

// Transcoder runs ffmpeg to produce MP3 files.
type Transcoder struct {
	BinaryPath string
	WaitDelay  time.Duration
	Logger     zerolog.Logger
}

func NewTranscoder(binaryPath string, logger zerolog.Logger) *Transcoder {
	if binaryPath == "" {
		binaryPath = toolFFmpeg
	}
	return &Transcoder{
		BinaryPath: binaryPath,
		WaitDelay:  procgroup.DefaultWaitDelay,
		Logger:     logger,
	}
}

// Transcode blocks until ffmpeg exits. Cancelling ctx kills the process
// group. A failure is a *toolio.ToolError whose detail is the last line
// ffmpeg wrote to stderr.
func (t *Transcoder) Transcode(ctx context.Context, spec TranscodeSpec) error {
	args := BuildArgs(spec)

	// #nosec G204 - binary comes from config; args are built from validated values
	cmd := exec.CommandContext(ctx, t.BinaryPath, args...)
	procgroup.Bind(cmd, t.WaitDelay)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to pipe stderr: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		metrics.RecordToolRun(toolFFmpeg, err)
		return toolio.NewToolError(toolFFmpeg, err, "")
	}

	ring := toolio.NewRingBuffer(stderrRingSize)
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		ring.Add(scanner.Text())
	}
	_, _ = io.Copy(io.Discard, stderr)

	err = cmd.Wait()
	metrics.RecordToolRun(toolFFmpeg, err)

	logger := log.WithContext(ctx, t.Logger)
	if err != nil {
		toolErr := toolio.NewToolError(toolFFmpeg, err, ring.Last())
		logger.Warn().
			Str(log.FieldEvent, "tool.failed").
			Str(log.FieldTool, toolFFmpeg).
			Int(log.FieldExitCode, toolErr.ExitCode).
			Str("stderr", ring.String()).
			Dur("elapsed", time.Since(start)).
			Msg("ffmpeg failed")
		return toolErr
	}

	logger.Debug().
		Str(log.FieldEvent, "tool.finished").
		Str(log.FieldTool, toolFFmpeg).
		Dur("elapsed", time.Since(start)).
		Msg("ffmpeg finished")
	return nil
}
