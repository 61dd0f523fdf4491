// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ytdlp drives the yt-dlp binary for metadata lookups and audio
// downloads. URLs reach it only after ValidateMediaURL.
package ytdlp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/clipmp3/internal/infra/toolio"
	"github.com/ManuGH/clipmp3/internal/log"
	"github.com/ManuGH/clipmp3/internal/metrics"
	"github.com/ManuGH/clipmp3/internal/procgroup"
	platformnet "github.com/ManuGH/clipmp3/internal/platform/net"
)

const (
	toolYtDlp = "yt-dlp"

	DefaultInfoTimeout   = 60 * time.Second
	DefaultMaxInfoOutput = 16 << 20

	// ProgressPerSecond bounds how often download progress is reported.
	ProgressPerSecond = 4

	stderrLimit  = 64 << 10
	outputRing   = 50
	maxLineBytes = 256 << 10
)

var progressPattern = regexp.MustCompile(`^\[download\]\s+(\d+(?:\.\d+)?)%`)

// Info is the subset of yt-dlp metadata the UI shows.
type Info struct {
	Title    *string
	Duration *float64
}

// ProgressFunc receives download percentages in 0..100.
type ProgressFunc func(percent float64)

// Client runs yt-dlp.
type Client struct {
	BinaryPath    string
	InfoTimeout   time.Duration
	MaxInfoOutput int
	WaitDelay     time.Duration
	Logger        zerolog.Logger
}

func NewClient(binaryPath string, infoTimeout time.Duration, logger zerolog.Logger) *Client {
	if binaryPath == "" {
		binaryPath = toolYtDlp
	}
	if infoTimeout <= 0 {
		infoTimeout = DefaultInfoTimeout
	}
	return &Client{
		BinaryPath:    binaryPath,
		InfoTimeout:   infoTimeout,
		MaxInfoOutput: DefaultMaxInfoOutput,
		WaitDelay:     procgroup.DefaultWaitDelay,
		Logger:        logger,
	}
}

// Info fetches metadata without downloading.
func (c *Client) Info(ctx context.Context, url platformnet.ValidatedURL) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, c.InfoTimeout)
	defer cancel()

	// #nosec G204 - binary comes from config; the URL passed ValidateMediaURL
	cmd := exec.CommandContext(ctx, c.BinaryPath,
		"--dump-single-json",
		"--no-playlist",
		"--no-warnings",
		"--", url.String(),
	)
	procgroup.Bind(cmd, c.WaitDelay)

	stdout := toolio.NewCappedBuffer(c.MaxInfoOutput)
	stderr := toolio.NewCappedBuffer(stderrLimit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	metrics.RecordToolRun(toolYtDlp, err)
	if err != nil {
		return Info{}, toolio.NewToolError(toolYtDlp, err, lastLine(string(stderr.Bytes())))
	}

	info, err := parseInfo(stdout.Bytes())
	if err != nil {
		return Info{}, err
	}
	logger := log.WithContext(ctx, c.Logger)
	logger.Debug().
		Str(log.FieldEvent, "tool.finished").
		Str(log.FieldTool, toolYtDlp).
		Str(log.FieldURL, platformnet.SanitizeURL(url.String())).
		Dur("elapsed", time.Since(start)).
		Msg("metadata fetched")
	return info, nil
}

func parseInfo(out []byte) (Info, error) {
	var raw struct {
		Title    any `json:"title"`
		Duration any `json:"duration"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return Info{}, fmt.Errorf("decode yt-dlp metadata: %w", err)
	}

	var info Info
	if s, ok := raw.Title.(string); ok && strings.TrimSpace(s) != "" {
		info.Title = &s
	}
	if d, ok := raw.Duration.(float64); ok && !math.IsNaN(d) && !math.IsInf(d, 0) && d >= 0 {
		info.Duration = &d
	}
	return info, nil
}

// FetchSpec describes one download.
type FetchSpec struct {
	URL platformnet.ValidatedURL
	// OutputTemplate is a yt-dlp -o template, e.g. <tmp>/<id>-input.%(ext)s.
	OutputTemplate string
}

// FetchArgs returns the yt-dlp arguments for spec.
func FetchArgs(spec FetchSpec) []string {
	return []string{
		"--no-playlist",
		"--newline",
		"--progress",
		"-f", "bestaudio/best",
		"-o", spec.OutputTemplate,
		"--print", "after_move:filepath",
		"--", spec.URL.String(),
	}
}

// Fetch downloads the media and returns the final path yt-dlp printed, or ""
// when it printed none. Callers must still confirm the file exists.
// progress may be nil; it is called from a single goroutine.
func (c *Client) Fetch(ctx context.Context, spec FetchSpec, progress ProgressFunc) (string, error) {
	// #nosec G204 - binary comes from config; the URL passed ValidateMediaURL
	cmd := exec.CommandContext(ctx, c.BinaryPath, FetchArgs(spec)...)
	procgroup.Bind(cmd, c.WaitDelay)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	start := time.Now()
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		metrics.RecordToolRun(toolYtDlp, err)
		return "", toolio.NewToolError(toolYtDlp, err, "")
	}

	type scanResult struct {
		printed string
		ring    *toolio.RingBuffer
	}
	done := make(chan scanResult, 1)
	go func() {
		printed, ring := scanOutput(pr, progress)
		done <- scanResult{printed: printed, ring: ring}
	}()

	err := cmd.Wait()
	_ = pw.Close()
	res := <-done
	metrics.RecordToolRun(toolYtDlp, err)

	logger := log.WithContext(ctx, c.Logger)
	if err != nil {
		toolErr := toolio.NewToolError(toolYtDlp, err, res.ring.Last())
		logger.Warn().
			Str(log.FieldEvent, "tool.failed").
			Str(log.FieldTool, toolYtDlp).
			Int(log.FieldExitCode, toolErr.ExitCode).
			Str(log.FieldURL, platformnet.SanitizeURL(spec.URL.String())).
			Str("output", res.ring.String()).
			Dur("elapsed", time.Since(start)).
			Msg("yt-dlp failed")
		return "", toolErr
	}

	logger.Debug().
		Str(log.FieldEvent, "tool.finished").
		Str(log.FieldTool, toolYtDlp).
		Str(log.FieldPath, res.printed).
		Dur("elapsed", time.Since(start)).
		Msg("download finished")
	return res.printed, nil
}

// scanOutput reads the merged output stream. Progress lines feed progress
// through a limiter; the last absolute path line is the printed filepath.
func scanOutput(r io.Reader, progress ProgressFunc) (string, *toolio.RingBuffer) {
	ring := toolio.NewRingBuffer(outputRing)
	limiter := rate.NewLimiter(rate.Limit(ProgressPerSecond), 1)

	var printed string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if pct, ok := ParseProgress(line); ok {
			if progress != nil && (pct >= 100 || limiter.Allow()) {
				progress(pct)
			}
			continue
		}
		if filepath.IsAbs(line) {
			printed = line
			continue
		}
		ring.Add(line)
	}
	_, _ = io.Copy(io.Discard, r)
	return printed, ring
}

// ParseProgress extracts the percentage from a "[download]  42.1% of ..." line.
func ParseProgress(line string) (float64, bool) {
	m := progressPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct > 100 {
		return 0, false
	}
	return pct, true
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
