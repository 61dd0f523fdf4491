// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ManuGH/clipmp3/internal/apperr"
	"github.com/ManuGH/clipmp3/internal/log"
	"github.com/ManuGH/clipmp3/internal/metrics"
	platformnet "github.com/ManuGH/clipmp3/internal/platform/net"
	"github.com/ManuGH/clipmp3/internal/platform/paths"
)

// MediaInfo is what the UI shows before a conversion.
type MediaInfo struct {
	Duration *float64 `json:"duration"`
	Title    *string  `json:"title"`
}

// VideoInfo looks up a remote source. Validator rejections keep their
// message; any fetch tool failure becomes the generic fetch message.
func (o *Orchestrator) VideoInfo(ctx context.Context, rawURL string) (MediaInfo, error) {
	u, err := platformnet.ValidateMediaURL(rawURL)
	if err != nil {
		metrics.IncValidationRejected("url")
		return MediaInfo{}, err
	}

	info, err := o.deps.Fetcher.Info(ctx, u)
	if err != nil {
		logger := log.WithContext(ctx, o.deps.Logger)
		logger.Warn().Err(err).
			Str(log.FieldEvent, "info.failed").
			Str(log.FieldURL, platformnet.SanitizeURL(u.String())).
			Msg("metadata lookup failed")
		return MediaInfo{}, apperr.Upstream(apperr.FetchFailedMessage, err)
	}
	return MediaInfo{Duration: info.Duration, Title: info.Title}, nil
}

// LocalFileInfo validates a picked file and probes its duration. The title
// is the base name without extension.
func (o *Orchestrator) LocalFileInfo(ctx context.Context, rawPath string) (MediaInfo, error) {
	p, err := paths.ValidateLocalFilePath(rawPath, o.cfg.Bases)
	if err != nil {
		metrics.IncValidationRejected("path")
		return MediaInfo{}, err
	}

	base := filepath.Base(p.String())
	title := strings.TrimSuffix(base, filepath.Ext(base))
	return MediaInfo{
		Duration: o.deps.Prober.ProbeDuration(ctx, p.String()),
		Title:    &title,
	}, nil
}
