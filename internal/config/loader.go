// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultListenAddr   = "127.0.0.1:8787"
	DefaultProbeTimeout = 10 * time.Second
	DefaultInfoTimeout  = 60 * time.Second
	DefaultRateRPS      = 10
	DefaultRateBurst    = 20
	MaxRateLimit        = 1000
	// TempDirName is the private directory created under os.TempDir().
	TempDirName = "clipmp3"
)

// DefaultDevOrigins are the UI dev-server origins accepted in development mode.
var DefaultDevOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	dotEnvPath      string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// WithDotEnv sets the .env file consulted in development mode.
func (l *Loader) WithDotEnv(path string) *Loader {
	l.dotEnvPath = path
	return l
}

// ConfigPath returns the YAML file this loader reads, if any.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults, then
// validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := AppConfig{}

	// 1. Defaults
	l.setDefaults(&cfg)

	// 2. File (if provided)
	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	// 2.5. .env only in development mode
	if l.envBool(EnvPrefix+"DEV_MODE", cfg.DevMode) {
		if err := LoadDotEnv(l.dotEnvPath); err != nil {
			return cfg, fmt.Errorf("load .env: %w", err)
		}
	}

	// 3. Environment (highest priority)
	l.mergeEnvConfig(&cfg)
	if cfg.Tools.FFprobe == "" {
		cfg.Tools.FFprobe = ResolveFFprobeBin("", cfg.Tools.FFmpeg)
	}
	if cfg.Tools.FFprobe == "" {
		cfg.Tools.FFprobe = "ffprobe"
	}

	for _, p := range []*string{&cfg.TempDir, &cfg.DownloadsDir, &cfg.UIDir} {
		if *p == "" {
			continue
		}
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}

	cfg.Version = l.version

	// 4. Validate
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) setDefaults(cfg *AppConfig) {
	cfg.ListenAddr = DefaultListenAddr
	cfg.DevOrigins = append([]string(nil), DefaultDevOrigins...)
	cfg.LogLevel = "info"
	cfg.LogService = "clipmp3"
	cfg.TempDir = filepath.Join(os.TempDir(), TempDirName)
	if home, err := os.UserHomeDir(); err == nil {
		cfg.DownloadsDir = filepath.Join(home, "Downloads")
	}
	cfg.Delivery = DeliveryDialog
	cfg.Tools = ToolsConfig{YtDlp: "yt-dlp", FFmpeg: "ffmpeg"}
	cfg.ProbeTimeout = DefaultProbeTimeout
	cfg.InfoTimeout = DefaultInfoTimeout
	cfg.RateLimit = RateLimitConfig{RPS: DefaultRateRPS, Burst: DefaultRateBurst}
	cfg.Telemetry = TelemetryConfig{
		Exporter:     "grpc",
		Endpoint:     "localhost:4317",
		SamplingRate: 1.0,
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFileConfig(data)
}

func parseFileConfig(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, ErrMultipleDocuments
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	if f.DevMode != nil {
		cfg.DevMode = *f.DevMode
	}
	setString(&cfg.ListenAddr, f.Listen)
	if len(f.DevOrigins) > 0 {
		cfg.DevOrigins = append([]string(nil), f.DevOrigins...)
	}
	setString(&cfg.DownloadsDir, f.DownloadsDir)
	setString(&cfg.RemovableRoot, f.RemovableRoot)
	setString(&cfg.MetricsListen, f.MetricsListen)
	setString(&cfg.UIDir, f.UIDir)

	setString(&cfg.LogLevel, f.Log.Level)
	setString(&cfg.LogService, f.Log.Service)
	setString(&cfg.Delivery, f.Delivery.Mode)

	setString(&cfg.Tools.YtDlp, f.Tools.YtDlp)
	setString(&cfg.Tools.FFmpeg, f.Tools.FFmpeg)
	setString(&cfg.Tools.FFprobe, f.Tools.FFprobe)

	if f.Timeouts.Probe != "" {
		d, err := time.ParseDuration(f.Timeouts.Probe)
		if err != nil {
			return fmt.Errorf("timeouts.probe: %w", err)
		}
		cfg.ProbeTimeout = d
	}
	if f.Timeouts.Info != "" {
		d, err := time.ParseDuration(f.Timeouts.Info)
		if err != nil {
			return fmt.Errorf("timeouts.info: %w", err)
		}
		cfg.InfoTimeout = d
	}

	if f.RateLimit.RPS != nil {
		cfg.RateLimit.RPS = *f.RateLimit.RPS
	}
	if f.RateLimit.Burst != nil {
		cfg.RateLimit.Burst = *f.RateLimit.Burst
	}

	if f.Telemetry.Enabled != nil {
		cfg.Telemetry.Enabled = *f.Telemetry.Enabled
	}
	setString(&cfg.Telemetry.Exporter, f.Telemetry.Exporter)
	setString(&cfg.Telemetry.Endpoint, f.Telemetry.Endpoint)
	if f.Telemetry.SamplingRate != nil {
		cfg.Telemetry.SamplingRate = *f.Telemetry.SamplingRate
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DevMode = l.envBool(EnvPrefix+"DEV_MODE", cfg.DevMode)
	cfg.ListenAddr = l.envString(EnvPrefix+"LISTEN", cfg.ListenAddr)
	cfg.DevOrigins = l.envList(EnvPrefix+"DEV_ORIGINS", cfg.DevOrigins)

	cfg.LogLevel = l.envString(EnvPrefix+"LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString(EnvPrefix+"LOG_SERVICE", cfg.LogService)

	cfg.TempDir = l.envString(EnvPrefix+"TEMP_DIR", cfg.TempDir)
	cfg.DownloadsDir = l.envString(EnvPrefix+"DOWNLOADS_DIR", cfg.DownloadsDir)
	cfg.RemovableRoot = l.envString(EnvPrefix+"REMOVABLE_ROOT", cfg.RemovableRoot)
	cfg.Delivery = l.envString(EnvPrefix+"DELIVERY", cfg.Delivery)

	cfg.Tools.YtDlp = l.envString(EnvPrefix+"YTDLP", cfg.Tools.YtDlp)
	cfg.Tools.FFmpeg = l.envString(EnvPrefix+"FFMPEG", cfg.Tools.FFmpeg)
	cfg.Tools.FFprobe = l.envString(EnvPrefix+"FFPROBE", cfg.Tools.FFprobe)

	cfg.ProbeTimeout = l.envDuration(EnvPrefix+"PROBE_TIMEOUT", cfg.ProbeTimeout)
	cfg.InfoTimeout = l.envDuration(EnvPrefix+"INFO_TIMEOUT", cfg.InfoTimeout)

	cfg.RateLimit.RPS = l.envInt(EnvPrefix+"RATE_LIMIT_RPS", cfg.RateLimit.RPS)
	cfg.RateLimit.Burst = l.envInt(EnvPrefix+"RATE_LIMIT_BURST", cfg.RateLimit.Burst)

	cfg.MetricsListen = l.envString(EnvPrefix+"METRICS_LISTEN", cfg.MetricsListen)
	cfg.UIDir = l.envString(EnvPrefix+"UI_DIR", cfg.UIDir)

	cfg.Telemetry.Enabled = l.envBool(EnvPrefix+"TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvPrefix+"TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvPrefix+"TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvPrefix+"TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
