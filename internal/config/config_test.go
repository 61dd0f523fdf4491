// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/clipmp3/internal/validate"
)

// isolate points the directories at per-test temp dirs so that defaults do
// not depend on the machine running the tests.
func isolate(t *testing.T) (tempDir, downloads string) {
	t.Helper()
	tempDir = filepath.Join(t.TempDir(), "clipmp3")
	downloads = t.TempDir()
	t.Setenv(EnvPrefix+"TEMP_DIR", tempDir)
	t.Setenv(EnvPrefix+"DOWNLOADS_DIR", downloads)
	return tempDir, downloads
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	tempDir, downloads := isolate(t)

	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultDevOrigins, cfg.DevOrigins)
	assert.Equal(t, DeliveryDialog, cfg.Delivery)
	assert.Equal(t, tempDir, cfg.TempDir)
	assert.Equal(t, downloads, cfg.DownloadsDir)
	assert.Equal(t, DefaultProbeTimeout, cfg.ProbeTimeout)
	assert.Equal(t, DefaultInfoTimeout, cfg.InfoTimeout)
	assert.Equal(t, RateLimitConfig{RPS: DefaultRateRPS, Burst: DefaultRateBurst}, cfg.RateLimit)
	assert.Equal(t, "yt-dlp", cfg.Tools.YtDlp)
	assert.Equal(t, "ffprobe", cfg.Tools.FFprobe)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
listen: 127.0.0.1:9000
delivery:
  mode: buffer
log:
  level: debug
timeouts:
  probe: 5s
rateLimit:
  rps: 3
  burst: 6
tools:
  ytdlp: /opt/bin/yt-dlp
`)
	t.Setenv(EnvPrefix+"LOG_LEVEL", "warn")
	t.Setenv(EnvPrefix+"RATE_LIMIT_BURST", "9")

	l := NewLoader(path, "test")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, DeliveryBuffer, cfg.Delivery)
	assert.Equal(t, "warn", cfg.LogLevel, "environment wins over file")
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, RateLimitConfig{RPS: 3, Burst: 9}, cfg.RateLimit)
	assert.Equal(t, "/opt/bin/yt-dlp", cfg.Tools.YtDlp)

	assert.Contains(t, l.ConsumedEnvKeys, EnvPrefix+"LOG_LEVEL")
	assert.Contains(t, l.ConsumedEnvKeys, EnvPrefix+"RATE_LIMIT_BURST")
}

func TestLoad_DevOriginsFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvPrefix+"DEV_ORIGINS", "http://localhost:3000, ,http://127.0.0.1:3000")

	cfg, err := NewLoader("", "test").Load()
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.DevOrigins); diff != "" {
		t.Errorf("DevOrigins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_StrictFile(t *testing.T) {
	isolate(t)

	t.Run("unknown field", func(t *testing.T) {
		path := writeConfig(t, "listen: 127.0.0.1:8787\nbogus: true\n")
		_, err := NewLoader(path, "test").Load()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownConfigField), "got %v", err)
	})

	t.Run("multiple documents", func(t *testing.T) {
		path := writeConfig(t, "listen: 127.0.0.1:8787\n---\nlisten: 127.0.0.1:8788\n")
		_, err := NewLoader(path, "test").Load()
		assert.ErrorIs(t, err, ErrMultipleDocuments)
	})

	t.Run("not yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
		_, err := NewLoader(path, "test").Load()
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeConfig(t, "")
		_, err := NewLoader(path, "test").Load()
		assert.NoError(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeConfig(t, "timeouts:\n  info: soon\n")
		_, err := NewLoader(path, "test").Load()
		assert.Error(t, err)
	})
}

func TestLoad_DotEnvOnlyInDevMode(t *testing.T) {
	isolate(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CLIPMP3_LOG_SERVICE=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv(EnvPrefix + "LOG_SERVICE") })

	cfg, err := NewLoader("", "test").WithDotEnv(envFile).Load()
	require.NoError(t, err)
	assert.Equal(t, "clipmp3", cfg.LogService)

	t.Setenv(EnvPrefix+"DEV_MODE", "true")
	cfg, err = NewLoader("", "test").WithDotEnv(envFile).Load()
	require.NoError(t, err)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "from-dotenv", cfg.LogService)
}

func validConfig(t *testing.T) AppConfig {
	t.Helper()
	return AppConfig{
		ListenAddr:   DefaultListenAddr,
		DevOrigins:   DefaultDevOrigins,
		LogLevel:     "info",
		TempDir:      t.TempDir(),
		DownloadsDir: t.TempDir(),
		Delivery:     DeliveryDialog,
		Tools:        ToolsConfig{YtDlp: "yt-dlp", FFmpeg: "ffmpeg", FFprobe: "ffprobe"},
		ProbeTimeout: DefaultProbeTimeout,
		InfoTimeout:  DefaultInfoTimeout,
		RateLimit:    RateLimitConfig{RPS: 1, Burst: 1},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validConfig(t)))

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"public listen", func(c *AppConfig) { c.ListenAddr = "0.0.0.0:8787" }, "listen"},
		{"bad delivery", func(c *AppConfig) { c.Delivery = "email" }, "delivery"},
		{"zero probe timeout", func(c *AppConfig) { c.ProbeTimeout = 0 }, "timeouts.probe"},
		{"negative info timeout", func(c *AppConfig) { c.InfoTimeout = -time.Second }, "timeouts.info"},
		{"remote dev origin", func(c *AppConfig) { c.DevOrigins = []string{"http://evil.example:5173"} }, "dev_origins"},
		{"file dev origin", func(c *AppConfig) { c.DevOrigins = []string{"file:///ui"} }, "dev_origins"},
		{"bad log level", func(c *AppConfig) { c.LogLevel = "loud" }, "log_level"},
		{"relative temp dir", func(c *AppConfig) { c.TempDir = "tmp" }, "temp_dir"},
		{"zero rps", func(c *AppConfig) { c.RateLimit.RPS = 0 }, "rate_limit.rps"},
		{"huge burst", func(c *AppConfig) { c.RateLimit.Burst = MaxRateLimit + 1 }, "rate_limit.burst"},
		{"public metrics", func(c *AppConfig) { c.MetricsListen = ":9090" }, "metrics_listen"},
		{"bad exporter", func(c *AppConfig) {
			c.Telemetry = TelemetryConfig{Enabled: true, Exporter: "zipkin", Endpoint: "x", SamplingRate: 1}
		}, "telemetry.exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)

			var verr validate.ValidationError
			require.True(t, errors.As(err, &verr))
			var fields []string
			for _, e := range verr.Errors() {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestPrepareTempDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "clipmp3")

	got, err := PrepareTempDir(dir)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	require.NoError(t, os.Chmod(got, 0o755))
	_, err = PrepareTempDir(dir)
	require.NoError(t, err)
	info, err = os.Stat(got)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestHolder_ReloadNotifiesListeners(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\nrateLimit:\n  rps: 2\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	select {
	case got := <-ch:
		assert.Equal(t, "debug", got.LogLevel)
		assert.Equal(t, 2, got.RateLimit.RPS)
	default:
		t.Fatal("listener was not notified")
	}
	assert.Equal(t, "debug", h.Get().LogLevel)
	assert.Equal(t, initial.TempDir, h.Get().TempDir)
}

func TestHolder_ReloadKeepsOldConfigOnError(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	require.NoError(t, os.WriteFile(path, []byte("delivery:\n  mode: carrier-pigeon\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, initial, h.Get())
}

func TestHolder_WatcherReloadsOnWrite(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o600))
	assert.Eventually(t, func() bool {
		return h.Get().LogLevel == "error"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRestartRequiredChanges(t *testing.T) {
	a := validConfig(t)
	b := a
	b.LogLevel = "debug"
	b.RateLimit.RPS = 7
	assert.Empty(t, RestartRequiredChanges(a, b))

	b.ListenAddr = "127.0.0.1:9999"
	b.Tools.FFmpeg = "/usr/local/bin/ffmpeg"
	assert.Equal(t, []string{"listen", "tools"}, RestartRequiredChanges(a, b))
}
