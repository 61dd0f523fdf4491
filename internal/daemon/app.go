// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/clipmp3/internal/config"
	"github.com/ManuGH/clipmp3/internal/log"
)

// ApplyFunc pushes a reloaded config into the running components.
type ApplyFunc func(cfg config.AppConfig)

// App owns the long-lived runtime lifecycle (config watcher, reload wiring)
// and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.Holder
	apply        ApplyFunc
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. cfgHolder and apply may be nil.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.Holder, apply ApplyFunc) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		apply:        apply,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Config watcher is best-effort: startup should not fail if watcher cannot be started.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}
		defer a.cfgHolder.Stop()
	}

	if a.cfgHolder != nil && a.apply != nil {
		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					a.apply(cfg)
				}
			}
		})
	}

	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.cfgHolder.Reload(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str(log.FieldEvent, "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// LiveApply returns the ApplyFunc for the settings that take effect without
// a restart: the log level and the rate limit.
func LiveApply(logger zerolog.Logger, setRateLimit func(rps, burst int)) ApplyFunc {
	return func(cfg config.AppConfig) {
		if err := log.SetLevel(cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Str("level", cfg.LogLevel).Msg("ignoring invalid log level")
		}
		if setRateLimit != nil {
			setRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
		logger.Info().
			Str(log.FieldEvent, "config.applied").
			Str("log_level", cfg.LogLevel).
			Int("rate_rps", cfg.RateLimit.RPS).
			Int("rate_burst", cfg.RateLimit.Burst).
			Msg("applied reloaded settings")
	}
}
