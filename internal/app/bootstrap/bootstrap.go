// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bootstrap is the composition root of the daemon: it loads the
// configuration, mints the surface handle and wires every component.
package bootstrap

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/clipmp3/internal/config"
	"github.com/ManuGH/clipmp3/internal/control/auth"
	controlhttp "github.com/ManuGH/clipmp3/internal/control/http"
	"github.com/ManuGH/clipmp3/internal/control/http/api"
	"github.com/ManuGH/clipmp3/internal/control/middleware"
	"github.com/ManuGH/clipmp3/internal/control/surface"
	"github.com/ManuGH/clipmp3/internal/daemon"
	"github.com/ManuGH/clipmp3/internal/infra/dialog"
	"github.com/ManuGH/clipmp3/internal/infra/ffmpeg"
	"github.com/ManuGH/clipmp3/internal/infra/ytdlp"
	xglog "github.com/ManuGH/clipmp3/internal/log"
	"github.com/ManuGH/clipmp3/internal/metrics"
	"github.com/ManuGH/clipmp3/internal/pipeline"
	"github.com/ManuGH/clipmp3/internal/pipeline/bus"
	"github.com/ManuGH/clipmp3/internal/platform/paths"
	"github.com/ManuGH/clipmp3/internal/telemetry"
)

// StaleArtifactAge is how old a leftover clip-* file must be before the
// startup sweep removes it.
const StaleArtifactAge = 24 * time.Hour

// ConfigPathEnv names an explicit config file when --config is not given.
const ConfigPathEnv = config.EnvPrefix + "CONFIG"

// Options control how the container is built.
type Options struct {
	Version    string
	ConfigPath string
	DotEnvPath string

	// LogOutput receives the process log. Nil means stdout.
	LogOutput  io.Writer
	LogConsole bool

	// OnReady is called once the API listener is bound.
	OnReady func(Ready)

	// Tools replaces the external-tool adapters (tests).
	Tools *Tools
}

// Tools are the adapters around external programs and native dialogs.
type Tools struct {
	Fetcher    pipeline.Fetcher
	Transcoder pipeline.Transcoder
	Prober     pipeline.Prober
	Dialogs    Dialogs
}

// Dialogs is the native desktop integration.
type Dialogs interface {
	api.Desktop
	pipeline.SaveDialog
}

// Ready is the one-line JSON record the launcher reads from stdout to learn
// where the daemon listens and which handle to inject into the UI window.
type Ready struct {
	Event   string `json:"event"`
	URL     string `json:"url"`
	Handle  string `json:"handle"`
	PID     int    `json:"pid"`
	Version string `json:"version"`
}

// Container holds the wired daemon.
type Container struct {
	Config       config.AppConfig
	ConfigHolder *config.Holder
	Logger       zerolog.Logger
	Surfaces     *surface.Registry
	Orchestrator *pipeline.Orchestrator
	Limiter      *middleware.RateLimiter
	Manager      daemon.Manager
	App          *daemon.App

	handle string
}

// Handle returns the main surface handle minted at startup.
func (c *Container) Handle() string {
	return c.handle
}

// WireServices builds the daemon. ctx bounds the daemon lifetime: running
// conversions are cancelled when it ends. On error every resource acquired
// so far is released.
func WireServices(ctx context.Context, opts Options) (c *Container, err error) {
	if ctx == nil {
		return nil, fmt.Errorf("wire services context is nil")
	}

	xglog.Configure(xglog.Config{
		Level:   "info",
		Output:  opts.LogOutput,
		Console: opts.LogConsole,
		Version: opts.Version,
	})
	logger := xglog.WithComponent("bootstrap")

	configPath, explicitMode, err := ResolveConfigPath(strings.TrimSpace(opts.ConfigPath))
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	loader := config.NewLoader(configPath, opts.Version).WithDotEnv(opts.DotEnvPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Output:  opts.LogOutput,
		Console: opts.LogConsole,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("bootstrap")
	logConfigSource(logger, configPath, explicitMode, cfg)

	// Undo partial wiring on failure, LIFO like the manager's hooks.
	var cleanups []func(context.Context) error
	defer func() {
		if err == nil {
			return
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			_ = cleanups[i](context.WithoutCancel(ctx))
		}
	}()

	tempDir, err := config.PrepareTempDir(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("prepare temp dir: %w", err)
	}
	cfg.TempDir = tempDir

	lock, err := daemon.AcquireInstanceLock(tempDir)
	if err != nil {
		return nil, err
	}
	cleanups = append(cleanups, lock.Release)

	sweepStale(logger, tempDir)

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    environment(cfg),
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	cleanups = append(cleanups, tp.Shutdown)

	surfaces := surface.NewRegistry()
	handle, err := surfaces.Register()
	if err != nil {
		return nil, fmt.Errorf("register main surface: %w", err)
	}
	cleanups = append(cleanups, func(context.Context) error {
		surfaces.Invalidate()
		return nil
	})

	origins := AllowedOrigins(cfg)
	authn, err := auth.NewAuthenticator(surfaces, origins)
	if err != nil {
		return nil, fmt.Errorf("build authenticator: %w", err)
	}

	events := bus.NewMemoryBus()
	cleanups = append(cleanups, func(context.Context) error {
		events.Close()
		return nil
	})

	tools := opts.Tools
	if tools == nil {
		tools = nativeTools(cfg)
	}

	downloadsDir := cfg.DownloadsDir
	if resolved, evalErr := filepath.EvalSymlinks(downloadsDir); evalErr == nil {
		downloadsDir = resolved
	}

	orch := pipeline.New(pipeline.Config{
		TempDir:      tempDir,
		DownloadsDir: downloadsDir,
		Delivery:     pipeline.DeliveryMode(cfg.Delivery),
		Bases: paths.BaseSource{
			TempDir:       tempDir,
			RemovableRoot: cfg.RemovableRoot,
		},
	}, pipeline.Deps{
		Fetcher:    tools.Fetcher,
		Transcoder: tools.Transcoder,
		Prober:     tools.Prober,
		Saver:      tools.Dialogs,
		Events:     events,
		Logger:     xglog.WithComponent("pipeline"),
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	apiServer := api.NewServer(api.Deps{
		Converter:    orch,
		Desktop:      tools.Dialogs,
		Events:       events,
		Surfaces:     surfaces,
		Sender:       authn,
		Limiter:      limiter.Handler,
		DownloadsDir: downloadsDir,
		Lifetime:     ctx,
		Logger:       xglog.WithComponent("api"),
	}, cfg.Version)

	stack := middleware.StackConfig{
		EnableMetrics: true,
		EnableLogging: true,
	}
	if cfg.DevMode {
		stack.CORSOrigins = cfg.DevOrigins
	}
	if cfg.Telemetry.Enabled {
		stack.TracingService = cfg.LogService
	}
	router := middleware.NewRouter(stack)
	apiServer.Mount(router)
	router.Handle("/*", controlhttp.UIHandler(controlhttp.UIConfig{Dir: cfg.UIDir}))

	serverCfg := daemon.DefaultServerConfig(cfg.ListenAddr)
	var readyOnce sync.Once
	serverCfg.OnListening = func(addr net.Addr) {
		readyOnce.Do(func() {
			origin := "http://" + addr.String()
			// The configured listen host may be a name (localhost); the UI is
			// opened at the bound address, so that is the origin to trust.
			if !cfg.DevMode {
				if err := authn.SetOrigins([]string{origin}); err != nil {
					logger.Error().Err(err).
						Str(xglog.FieldEvent, "auth.origin_update_failed").
						Str(xglog.FieldOrigin, origin).
						Msg("keeping configured allowed origins")
				}
			}
			logger.Info().
				Str(xglog.FieldEvent, "auth.origins").
				Strs("allowed_origins", authn.AllowedOrigins()).
				Msg("sender allow-list active")
			if opts.OnReady != nil {
				opts.OnReady(Ready{
					Event:   "ready",
					URL:     origin,
					Handle:  handle,
					PID:     os.Getpid(),
					Version: cfg.Version,
				})
			}
		})
	}

	mgr, err := daemon.NewManager(serverCfg, daemon.Deps{
		Logger:         xglog.WithComponent("daemon"),
		APIHandler:     router,
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    cfg.MetricsListen,
	})
	if err != nil {
		return nil, err
	}

	// Registered in reverse of the order they should run.
	mgr.RegisterShutdownHook("instance_lock", lock.Release)
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("event_bus", func(context.Context) error {
		events.Close()
		return nil
	})
	mgr.RegisterShutdownHook("surface_registry", func(context.Context) error {
		surfaces.Invalidate()
		return nil
	})

	holder := config.NewHolder(cfg, loader)
	app := daemon.NewApp(logger, mgr, holder, daemon.LiveApply(logger, limiter.Update))

	logger.Info().
		Str(xglog.FieldEvent, "bootstrap.wired").
		Str("temp_dir", tempDir).
		Str("downloads_dir", downloadsDir).
		Str("delivery", cfg.Delivery).
		Bool("dev_mode", cfg.DevMode).
		Msg("daemon wired")

	return &Container{
		Config:       cfg,
		ConfigHolder: holder,
		Logger:       logger,
		Surfaces:     surfaces,
		Orchestrator: orch,
		Limiter:      limiter,
		Manager:      mgr,
		App:          app,
		handle:       handle,
	}, nil
}

// Run blocks until ctx ends or a server fails, then shuts everything down.
func (c *Container) Run(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("run context is nil")
	}
	if c == nil || c.App == nil {
		return fmt.Errorf("container is not fully initialized")
	}
	return c.App.Run(ctx)
}

// AllowedOrigins is the sender allow-list before the listener is bound: the
// daemon's configured origin in a packaged build, the dev server origins in
// development. A packaged daemon narrows it to the bound address once
// listening.
func AllowedOrigins(cfg config.AppConfig) []string {
	if cfg.DevMode {
		return append([]string(nil), cfg.DevOrigins...)
	}
	return []string{"http://" + cfg.ListenAddr}
}

func environment(cfg config.AppConfig) string {
	if cfg.DevMode {
		return "development"
	}
	return "packaged"
}

func nativeTools(cfg config.AppConfig) *Tools {
	return &Tools{
		Fetcher:    ytdlp.NewClient(cfg.Tools.YtDlp, cfg.InfoTimeout, xglog.WithComponent("ytdlp")),
		Transcoder: ffmpeg.NewTranscoder(cfg.Tools.FFmpeg, xglog.WithComponent("ffmpeg")),
		Prober:     ffmpeg.NewProber(cfg.Tools.FFprobe, cfg.ProbeTimeout, xglog.WithComponent("ffprobe")),
		Dialogs:    dialog.NewNative(xglog.WithComponent("dialog")),
	}
}

// sweepStale removes artifacts a killed daemon left behind. It runs under
// the instance lock, so no live job can own them.
func sweepStale(logger zerolog.Logger, tempDir string) {
	n, err := pipeline.SweepStale(tempDir, time.Now().Add(-StaleArtifactAge))
	metrics.AddSwept("startup", n)
	if err != nil {
		metrics.IncCleanupError()
		logger.Warn().Err(err).
			Str(xglog.FieldEvent, "cleanup.startup_sweep_failed").
			Msg("could not remove every stale artifact")
	}
	if n > 0 {
		logger.Info().
			Str(xglog.FieldEvent, "cleanup.startup_sweep").
			Int("removed", n).
			Msg("removed stale artifacts")
	}
}

func logConfigSource(logger zerolog.Logger, path string, explicit bool, cfg config.AppConfig) {
	switch {
	case explicit:
		logger.Info().
			Str(xglog.FieldEvent, "config.loaded").
			Str("source", "file").
			Str(xglog.FieldPath, path).
			Msg("loaded configuration from file")
	case path != "":
		logger.Info().
			Str(xglog.FieldEvent, "config.loaded").
			Str("source", "file(auto)").
			Str(xglog.FieldPath, path).
			Msg("loaded configuration from file")
	default:
		logger.Info().
			Str(xglog.FieldEvent, "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if configBytes, marshalErr := json.Marshal(cfg); marshalErr == nil {
		hash := sha256.Sum256(configBytes)
		logger.Info().
			Str(xglog.FieldEvent, "config.snapshot").
			Str("sha256", fmt.Sprintf("%x", hash)).
			Msg("configuration snapshot fingerprint")
	}
}

// ResolveConfigPath picks the config file: the explicit path, then
// CLIPMP3_CONFIG, then <user config dir>/clipmp3/config.yaml if it exists.
// No file at all is valid; defaults and environment apply.
func ResolveConfigPath(explicit string) (path string, explicitMode bool, err error) {
	if explicit == "" {
		explicit = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	if explicit != "" {
		absPath, err := filepath.Abs(explicit)
		if err != nil {
			return "", true, fmt.Errorf("resolve absolute path for explicit config %q: %w", explicit, err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return "", true, fmt.Errorf("explicit config file not found %q: %w", absPath, err)
		}
		if info.IsDir() {
			return "", true, fmt.Errorf("explicit config path %q is a directory", absPath)
		}
		return absPath, true, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false, nil
	}
	autoPath := filepath.Join(dir, config.TempDirName, "config.yaml")
	if info, statErr := os.Stat(autoPath); statErr == nil && !info.IsDir() {
		return autoPath, false, nil
	} else if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return "", false, fmt.Errorf("stat %q: %w", autoPath, statErr)
	}
	return "", false, nil
}
