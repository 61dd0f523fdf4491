// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the daemon configuration from defaults, an optional
// strict YAML file and CLIPMP3_* environment variables, in that order.
package config

import "time"

// Delivery modes for finished files.
const (
	DeliveryDialog = "dialog"
	DeliveryBuffer = "buffer"
)

// AppConfig is the effective daemon configuration.
type AppConfig struct {
	Version string `yaml:"-"`
	DevMode bool   `yaml:"dev_mode"`

	// ListenAddr must be a loopback host:port.
	ListenAddr string `yaml:"listen"`
	// DevOrigins are the UI origins accepted in development mode.
	DevOrigins []string `yaml:"dev_origins"`

	LogLevel   string `yaml:"log_level"`
	LogService string `yaml:"log_service"`

	// TempDir is the private working directory, resolved once at startup.
	TempDir       string `yaml:"temp_dir"`
	DownloadsDir  string `yaml:"downloads_dir"`
	RemovableRoot string `yaml:"removable_root"`
	Delivery      string `yaml:"delivery"`

	Tools ToolsConfig `yaml:"tools"`

	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	InfoTimeout  time.Duration `yaml:"info_timeout"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// MetricsListen enables a separate loopback /metrics listener when set.
	MetricsListen string `yaml:"metrics_listen"`
	// UIDir serves a bundled UI from disk instead of the embedded placeholder.
	UIDir string `yaml:"ui_dir"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ToolsConfig locates the external binaries.
type ToolsConfig struct {
	YtDlp   string `yaml:"ytdlp"`
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

// RateLimitConfig bounds /api/* requests per client address.
type RateLimitConfig struct {
	RPS   int `yaml:"rps"`
	Burst int `yaml:"burst"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// FileConfig mirrors the YAML file. Pointer fields distinguish "absent"
// from an explicit zero value.
type FileConfig struct {
	DevMode       *bool    `yaml:"devMode,omitempty"`
	Listen        string   `yaml:"listen,omitempty"`
	DevOrigins    []string `yaml:"devOrigins,omitempty"`
	DownloadsDir  string   `yaml:"downloadsDir,omitempty"`
	RemovableRoot string   `yaml:"removableRoot,omitempty"`
	MetricsListen string   `yaml:"metricsListen,omitempty"`
	UIDir         string   `yaml:"uiDir,omitempty"`

	Log       LogFileConfig       `yaml:"log,omitempty"`
	Delivery  DeliveryFileConfig  `yaml:"delivery,omitempty"`
	Tools     ToolsFileConfig     `yaml:"tools,omitempty"`
	Timeouts  TimeoutsFileConfig  `yaml:"timeouts,omitempty"`
	RateLimit RateLimitFileConfig `yaml:"rateLimit,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

type LogFileConfig struct {
	Level   string `yaml:"level,omitempty"`
	Service string `yaml:"service,omitempty"`
}

type DeliveryFileConfig struct {
	Mode string `yaml:"mode,omitempty"`
}

type ToolsFileConfig struct {
	YtDlp   string `yaml:"ytdlp,omitempty"`
	FFmpeg  string `yaml:"ffmpeg,omitempty"`
	FFprobe string `yaml:"ffprobe,omitempty"`
}

// TimeoutsFileConfig holds Go duration strings ("10s").
type TimeoutsFileConfig struct {
	Probe string `yaml:"probe,omitempty"`
	Info  string `yaml:"info,omitempty"`
}

type RateLimitFileConfig struct {
	RPS   *int `yaml:"rps,omitempty"`
	Burst *int `yaml:"burst,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
