// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pipeline runs conversion jobs: validate the request, acquire the
// source, transcode to MP3, deliver the result and clean up temp artifacts
// on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/clipmp3/internal/apperr"
	"github.com/ManuGH/clipmp3/internal/infra/ffmpeg"
	"github.com/ManuGH/clipmp3/internal/infra/toolio"
	"github.com/ManuGH/clipmp3/internal/infra/ytdlp"
	"github.com/ManuGH/clipmp3/internal/log"
	"github.com/ManuGH/clipmp3/internal/media"
	"github.com/ManuGH/clipmp3/internal/metrics"
	platformnet "github.com/ManuGH/clipmp3/internal/platform/net"
	"github.com/ManuGH/clipmp3/internal/platform/paths"
	"github.com/ManuGH/clipmp3/internal/pipeline/bus"
	"github.com/ManuGH/clipmp3/internal/telemetry"
)

var (
	ErrDownloadNotFound  = apperr.New(apperr.KindUpstreamFailure, "Downloaded file not found")
	ErrOutputNotFound    = apperr.NotFound("Converted file not found")
	ErrSaveCanceled      = apperr.Canceled("Save canceled")
	ErrSaveDialogFailed  = apperr.New(apperr.KindInternal, "Could not open the save dialog")
	ErrDeliveryFailed    = apperr.New(apperr.KindInternal, "Could not save the MP3 file")
	errConversionMessage = "Conversion failed"
)

// Fetcher downloads remote media.
type Fetcher interface {
	Info(ctx context.Context, url platformnet.ValidatedURL) (ytdlp.Info, error)
	Fetch(ctx context.Context, spec ytdlp.FetchSpec, progress ytdlp.ProgressFunc) (string, error)
}

// Transcoder produces the MP3.
type Transcoder interface {
	Transcode(ctx context.Context, spec ffmpeg.TranscodeSpec) error
}

// Prober reads a local file's duration; nil means unknown.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) *float64
}

// SaveDialog asks the user where to store the MP3. ok is false on cancel.
type SaveDialog interface {
	SaveMP3(ctx context.Context, suggested string) (path string, ok bool, err error)
}

// Config is resolved once at startup.
type Config struct {
	// TempDir is the private, already resolved working directory.
	TempDir      string
	DownloadsDir string
	Delivery     DeliveryMode
	Bases        paths.BaseSource
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Fetcher    Fetcher
	Transcoder Transcoder
	Prober     Prober
	Saver      SaveDialog
	Events     bus.Publisher
	Logger     zerolog.Logger
}

// Result is a finished job. FilePath is set in dialog mode, Buffer in
// buffer mode.
type Result struct {
	Filename string
	FilePath string
	Buffer   []byte
}

// Orchestrator runs conversion jobs. Jobs are independent; the only shared
// resource is the temp directory, partitioned by job id.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	tracer trace.Tracer
	now    func() time.Time
	newID  func() string
}

func New(cfg Config, deps Deps) *Orchestrator {
	if cfg.Delivery == "" {
		cfg.Delivery = DeliveryDialog
	}
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		tracer: telemetry.Tracer("clipmp3/pipeline"),
		now:    time.Now,
		newID:  NewJobID,
	}
}

// job is the per-request context. It never outlives Run.
type job struct {
	id      string
	state   State
	entered time.Time
	logger  zerolog.Logger

	req      media.DownloadRequest
	source   media.Kind
	remote   platformnet.ValidatedURL
	params   media.Params
	filename string

	input    string // what the transcoder reads
	fetched  string // acquired remote input, removed on exit
	output   string
	result   Result
	trimmed  bool
	outBytes int64
}

// Run executes one conversion. The returned error carries the message of
// the step that failed, unchanged.
func (o *Orchestrator) Run(ctx context.Context, req media.DownloadRequest) (Result, error) {
	j := &job{id: o.newID(), state: StateValidating, entered: o.now(), req: req}
	ctx = log.ContextWithJobID(ctx, j.id)
	j.logger = log.WithContext(ctx, o.deps.Logger)

	ctx, span := o.tracer.Start(ctx, "clip.job", trace.WithAttributes(telemetry.JobAttributes(j.id, "", string(o.cfg.Delivery), 1, false)...))
	defer span.End()

	start := o.now()
	finish := metrics.JobStarted(sourceLabel(req))

	err := o.runStates(ctx, j)
	o.cleanup(ctx, j, err != nil)

	outcome := "done"
	switch {
	case apperr.KindOf(err) == apperr.KindUserCanceled:
		outcome = "canceled"
	case err != nil:
		outcome = "failed"
	}
	finish(outcome)
	elapsed := o.now().Sub(start)
	span.SetAttributes(telemetry.JobAttributes(j.id, string(j.source), string(o.cfg.Delivery), j.params.Speed(), j.trimmed)...)
	span.SetAttributes(telemetry.OutcomeAttributes(outcome, elapsed.Milliseconds())...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.Message(err))
		o.logFailure(j, err, elapsed)
		return Result{}, err
	}

	j.logger.Info().
		Str(log.FieldEvent, "job.done").
		Str("source", string(j.source)).
		Str("delivery", string(o.cfg.Delivery)).
		Str(log.FieldSize, humanize.Bytes(uint64(j.outBytes))).
		Dur("elapsed", elapsed).
		Msg("conversion finished")
	return j.result, nil
}

func (o *Orchestrator) runStates(ctx context.Context, j *job) error {
	for !j.state.Terminal() {
		stepCtx, span := o.tracer.Start(ctx, "clip."+string(j.state))
		next, err := o.step(stepCtx, j)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperr.Message(err))
		}
		span.End()

		if err != nil {
			o.enter(j, StateFailed)
			return err
		}
		if err := checkTransition(j.state, next); err != nil {
			o.enter(j, StateFailed)
			return apperr.Wrap(apperr.KindInternal, "Something went wrong", err)
		}
		o.enter(j, next)
	}
	return nil
}

func (o *Orchestrator) step(ctx context.Context, j *job) (State, error) {
	switch j.state {
	case StateValidating:
		return o.validate(ctx, j)
	case StateAcquiring:
		return o.acquire(ctx, j)
	case StateConverting:
		return o.convert(ctx, j)
	case StateFinalizing:
		return o.finalize(ctx, j)
	default:
		return StateFailed, fmt.Errorf("no step for state %s", j.state)
	}
}

func (o *Orchestrator) enter(j *job, to State) {
	now := o.now()
	metrics.ObservePhase(string(j.state), now.Sub(j.entered))
	j.logger.Debug().
		Str(log.FieldEvent, "job.transition").
		Str(log.FieldOldState, string(j.state)).
		Str(log.FieldNewState, string(to)).
		Msg("job state changed")
	j.state = to
	j.entered = now
}

func (o *Orchestrator) validate(ctx context.Context, j *job) (State, error) {
	src, err := j.req.Source()
	if err != nil {
		return StateFailed, err
	}
	j.source = src.Kind()

	switch s := src.(type) {
	case media.RemoteSource:
		u, err := platformnet.ValidateMediaURL(s.URL)
		if err != nil {
			metrics.IncValidationRejected("url")
			return StateFailed, err
		}
		j.remote = u
	case media.LocalSource:
		p, err := paths.ValidateLocalFilePath(s.Path, o.cfg.Bases)
		if err != nil {
			metrics.IncValidationRejected("path")
			return StateFailed, err
		}
		j.input = p.String()
	}

	params, err := media.ValidateDownloadParams(j.req.RawParams)
	if err != nil {
		metrics.IncValidationRejected("params")
		return StateFailed, err
	}
	j.params = params
	_, hasSeek, _, hasDuration := params.Window()
	j.trimmed = hasSeek || hasDuration

	j.filename = media.SanitizeFilename(o.title(ctx, j)) + ".mp3"

	if j.source == media.KindLocal {
		return StateConverting, nil
	}
	return StateAcquiring, nil
}

// title picks the output name: the caller's title, else the remote title,
// else the local base name. Lookup failures are logged, never surfaced.
func (o *Orchestrator) title(ctx context.Context, j *job) string {
	if t := strings.TrimSpace(string(j.req.Title)); t != "" {
		return t
	}
	if j.source == media.KindLocal {
		base := filepath.Base(j.input)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}

	info, err := o.deps.Fetcher.Info(ctx, j.remote)
	if err != nil {
		j.logger.Info().Err(err).
			Str(log.FieldEvent, "job.title_lookup_failed").
			Msg("falling back to generic title")
		return media.FallbackFilename
	}
	if info.Title == nil {
		return media.FallbackFilename
	}
	return *info.Title
}

func (o *Orchestrator) acquire(ctx context.Context, j *job) (State, error) {
	o.publish(ctx, j, bus.PhaseDownloading, nil)

	printed, err := o.deps.Fetcher.Fetch(ctx, ytdlp.FetchSpec{
		URL:            j.remote,
		OutputTemplate: inputTemplate(o.cfg.TempDir, j.id),
	}, func(pct float64) {
		o.publish(ctx, j, bus.PhaseDownloading, &pct)
	})
	if err != nil {
		return StateFailed, apperr.Upstream(apperr.FetchFailedMessage, err)
	}

	path, err := LocateArtifact(o.cfg.TempDir, inputPrefix(j.id), printed)
	if err != nil {
		return StateFailed, apperr.Wrap(ErrDownloadNotFound.Kind, ErrDownloadNotFound.Message, err)
	}
	j.fetched = path
	j.input = path
	return StateConverting, nil
}

func (o *Orchestrator) convert(ctx context.Context, j *job) (State, error) {
	o.publish(ctx, j, bus.PhaseConverting, nil)

	j.output = outputPath(o.cfg.TempDir, j.id)
	err := o.deps.Transcoder.Transcode(ctx, ffmpeg.TranscodeSpec{
		Input:  j.input,
		Output: j.output,
		Params: j.params,
	})
	if err != nil {
		return StateFailed, apperr.Upstream(conversionMessage(err), err)
	}
	return StateFinalizing, nil
}

// conversionMessage surfaces ffmpeg's own last stderr line.
func conversionMessage(err error) string {
	var te *toolio.ToolError
	if errors.As(err, &te) && te.Detail != "" {
		return errConversionMessage + ": " + te.Detail
	}
	return errConversionMessage
}

func (o *Orchestrator) finalize(ctx context.Context, j *job) (State, error) {
	out, err := LocateArtifact(o.cfg.TempDir, filepath.Base(j.output), "")
	if err != nil {
		return StateFailed, apperr.Wrap(ErrOutputNotFound.Kind, ErrOutputNotFound.Message, err)
	}
	j.output = out

	if fi, err := os.Stat(out); err == nil {
		j.outBytes = fi.Size()
		metrics.ObserveOutputBytes(fi.Size())
	}

	switch o.cfg.Delivery {
	case DeliveryBuffer:
		data, err := os.ReadFile(out)
		if err != nil {
			return StateFailed, apperr.Wrap(ErrDeliveryFailed.Kind, ErrDeliveryFailed.Message, err)
		}
		j.result = Result{Filename: j.filename, Buffer: data}
	default:
		suggested := filepath.Join(o.cfg.DownloadsDir, j.filename)
		dst, ok, err := o.deps.Saver.SaveMP3(ctx, suggested)
		if err != nil {
			return StateFailed, apperr.Wrap(ErrSaveDialogFailed.Kind, ErrSaveDialogFailed.Message, err)
		}
		if !ok {
			return StateFailed, ErrSaveCanceled
		}
		if filepath.Ext(dst) == "" {
			dst += ".mp3"
		}
		if err := copyAtomic(ctx, out, dst); err != nil {
			return StateFailed, apperr.Wrap(ErrDeliveryFailed.Kind, ErrDeliveryFailed.Message, err)
		}
		j.result = Result{Filename: filepath.Base(dst), FilePath: dst}
	}
	return StateDone, nil
}

// cleanup removes this job's temp artifacts. It never deletes a local
// source: only the fetched input is tracked for removal.
func (o *Orchestrator) cleanup(ctx context.Context, j *job, failed bool) {
	for _, p := range []string{j.fetched, j.output} {
		if err := removeIfExists(p); err != nil {
			metrics.IncCleanupError()
			j.logger.Warn().Err(err).
				Str(log.FieldEvent, "job.cleanup_failed").
				Str(log.FieldPath, filepath.Base(p)).
				Msg("temp artifact not removed")
		}
	}
	if !failed {
		return
	}
	n, err := SweepJob(o.cfg.TempDir, j.id)
	metrics.AddSwept("job_failed", n)
	if err != nil {
		metrics.IncCleanupError()
		j.logger.Warn().Err(err).
			Str(log.FieldEvent, "job.sweep_failed").
			Msg("temp sweep incomplete")
	}
}

func (o *Orchestrator) publish(ctx context.Context, j *job, phase string, pct *float64) {
	if o.deps.Events == nil {
		return
	}
	o.deps.Events.Publish(ctx, bus.Event{Phase: phase, JobID: j.id, Percent: pct})
}

func (o *Orchestrator) logFailure(j *job, err error, elapsed time.Duration) {
	ev := j.logger.Warn()
	if apperr.KindOf(err) == apperr.KindUserCanceled {
		ev = j.logger.Info()
	}
	ev.Err(errors.Unwrap(err)).
		Str(log.FieldEvent, "job.failed").
		Str("kind", apperr.KindOf(err).String()).
		Str("message", apperr.Message(err)).
		Str("source", string(j.source)).
		Dur("elapsed", elapsed).
		Msg("conversion failed")
}

func sourceLabel(req media.DownloadRequest) string {
	src, err := req.Source()
	if err != nil {
		return "invalid"
	}
	return string(src.Kind())
}
