// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"context"
	"encoding/json"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/clipmp3/internal/infra/toolio"
	"github.com/ManuGH/clipmp3/internal/log"
	"github.com/ManuGH/clipmp3/internal/metrics"
	"github.com/ManuGH/clipmp3/internal/procgroup"
)

const (
	toolFFprobe = "ffprobe"

	// DefaultProbeTimeout is the hard cap for one duration probe.
	DefaultProbeTimeout = 10 * time.Second
	// DefaultProbeMaxOutput bounds ffprobe stdout.
	DefaultProbeMaxOutput = 1 << 20
)

// Prober reads media duration with ffprobe.
type Prober struct {
	BinaryPath string
	Timeout    time.Duration
	MaxOutput  int
	Logger     zerolog.Logger
}

func NewProber(binaryPath string, timeout time.Duration, logger zerolog.Logger) *Prober {
	if binaryPath == "" {
		binaryPath = toolFFprobe
	}
	if timeout <= 0 || timeout > DefaultProbeTimeout {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		BinaryPath: binaryPath,
		Timeout:    timeout,
		MaxOutput:  DefaultProbeMaxOutput,
		Logger:     logger,
	}
}

type probeData struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration returns the container duration in seconds, or nil when it
// cannot be determined. Failures are logged and never returned: the UI
// degrades to an unknown duration.
func (p *Prober) ProbeDuration(ctx context.Context, path string) *float64 {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	logger := log.WithContext(ctx, p.Logger)

	// #nosec G204 - binary comes from config; path was confined by the caller
	cmd := exec.CommandContext(ctx, p.BinaryPath,
		"-v", "error",
		"-show_format",
		"-of", "json",
		"--", path,
	)
	procgroup.Bind(cmd, 0)

	stdout := toolio.NewCappedBuffer(p.MaxOutput)
	cmd.Stdout = stdout

	err := cmd.Run()
	metrics.RecordToolRun(toolFFprobe, err)
	if err != nil {
		logger.Debug().Err(err).
			Str(log.FieldEvent, "probe.failed").
			Str(log.FieldTool, toolFFprobe).
			Msg("duration probe failed")
		return nil
	}

	d, ok := parseDuration(stdout.Bytes())
	if !ok {
		logger.Debug().
			Str(log.FieldEvent, "probe.no_duration").
			Str(log.FieldTool, toolFFprobe).
			Msg("ffprobe reported no usable duration")
		return nil
	}
	return &d
}

func parseDuration(out []byte) (float64, bool) {
	var data probeData
	if err := json.Unmarshal(out, &data); err != nil {
		return 0, false
	}
	raw := strings.TrimSpace(data.Format.Duration)
	if raw == "" {
		return 0, false
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, false
	}
	return d, true
}
