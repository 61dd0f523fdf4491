// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	m := &dto.Metric{}
	require.NoError(t, (<-ch).Write(m))
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestJobStarted_TracksInFlightAndOutcome(t *testing.T) {
	done := jobsTotal.WithLabelValues("local", "done")
	before := counterValue(t, done)
	inflight := counterValue(t, jobsInFlight)

	finish := JobStarted("local")
	assert.Equal(t, inflight+1, counterValue(t, jobsInFlight))

	finish("done")
	assert.Equal(t, inflight, counterValue(t, jobsInFlight))
	assert.Equal(t, before+1, counterValue(t, done))
}

func TestRecordToolRun(t *testing.T) {
	okC := toolRunsTotal.WithLabelValues("ffmpeg", "ok")
	errC := toolRunsTotal.WithLabelValues("ffmpeg", "error")
	okBefore, errBefore := counterValue(t, okC), counterValue(t, errC)

	RecordToolRun("ffmpeg", nil)
	RecordToolRun("ffmpeg", errors.New("exit status 1"))

	assert.Equal(t, okBefore+1, counterValue(t, okC))
	assert.Equal(t, errBefore+1, counterValue(t, errC))
}

func TestAddSwept_IgnoresZero(t *testing.T) {
	c := sweptFilesTotal.WithLabelValues("startup")
	before := counterValue(t, c)
	AddSwept("startup", 0)
	AddSwept("startup", 3)
	assert.Equal(t, before+3, counterValue(t, c))
}

func TestPromhttpExposure(t *testing.T) {
	IncSenderRejected()
	IncValidationRejected("url")
	ObservePhase("converting", 2*time.Second)
	ObserveOutputBytes(1 << 20)

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		"clipmp3_sender_rejected_total",
		`clipmp3_validation_rejected_total{validator="url"}`,
		`clipmp3_job_phase_duration_seconds_bucket{phase="converting"`,
		"clipmp3_output_bytes_count",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}
