// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"github.com/ManuGH/clipmp3/internal/validate"
)

// Validate checks the effective configuration and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.LoopbackAddr("listen", cfg.ListenAddr)
	for _, origin := range cfg.DevOrigins {
		v.LoopbackOrigin("dev_origins", origin)
	}

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("log_level", err.Error(), cfg.LogLevel)
	}

	v.AbsDir("temp_dir", cfg.TempDir, true)
	v.AbsDir("downloads_dir", cfg.DownloadsDir, true)
	if cfg.UIDir != "" {
		v.AbsDir("ui_dir", cfg.UIDir, false)
	}

	v.OneOf("delivery", cfg.Delivery, []string{DeliveryDialog, DeliveryBuffer})

	v.NotEmpty("tools.ytdlp", cfg.Tools.YtDlp)
	v.NotEmpty("tools.ffmpeg", cfg.Tools.FFmpeg)
	v.NotEmpty("tools.ffprobe", cfg.Tools.FFprobe)

	if cfg.ProbeTimeout <= 0 {
		v.AddError("timeouts.probe", "must be positive", cfg.ProbeTimeout.String())
	}
	if cfg.InfoTimeout <= 0 {
		v.AddError("timeouts.info", "must be positive", cfg.InfoTimeout.String())
	}

	v.Range("rate_limit.rps", cfg.RateLimit.RPS, 1, MaxRateLimit)
	v.Range("rate_limit.burst", cfg.RateLimit.Burst, 1, MaxRateLimit)

	if cfg.MetricsListen != "" {
		v.LoopbackAddr("metrics_listen", cfg.MetricsListen)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.sampling_rate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
