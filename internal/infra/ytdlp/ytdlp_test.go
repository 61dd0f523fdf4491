// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/clipmp3/internal/infra/toolio"
	platformnet "github.com/ManuGH/clipmp3/internal/platform/net"
)

func mustURL(t *testing.T, raw string) platformnet.ValidatedURL {
	t.Helper()
	u, err := platformnet.ValidateMediaURL(raw)
	require.NoError(t, err)
	return u
}

func writeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools need a unix shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		line   string
		want   float64
		wantOK bool
	}{
		{"[download]  42.1% of 3.21MiB at 1.02MiB/s ETA 00:02", 42.1, true},
		{"[download] 100% of 3.21MiB in 00:00:03", 100, true},
		{"[download]   0.0% of ~ 10.00MiB", 0, true},
		{"[download] Destination: /tmp/clipmp3/clip-x-input.webm", 0, false},
		{"[youtube] dQw4w9WgXcQ: Downloading webpage", 0, false},
		{"[download] 250% of nonsense", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseProgress(tt.line)
		assert.Equal(t, tt.wantOK, ok, tt.line)
		assert.InDelta(t, tt.want, got, 1e-9, tt.line)
	}
}

func TestFetchArgs(t *testing.T) {
	got := FetchArgs(FetchSpec{
		URL:            mustURL(t, "https://www.youtube.com/watch?v=abc"),
		OutputTemplate: "/tmp/clipmp3/clip-1-input.%(ext)s",
	})
	want := []string{
		"--no-playlist", "--newline", "--progress",
		"-f", "bestaudio/best",
		"-o", "/tmp/clipmp3/clip-1-input.%(ext)s",
		"--print", "after_move:filepath",
		"--", "https://www.youtube.com/watch?v=abc",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchArgs() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInfo(t *testing.T) {
	info, err := parseInfo([]byte(`{"title":"Song","duration":212.0,"formats":[]}`))
	require.NoError(t, err)
	require.NotNil(t, info.Title)
	require.NotNil(t, info.Duration)
	assert.Equal(t, "Song", *info.Title)
	assert.InDelta(t, 212.0, *info.Duration, 1e-9)

	info, err = parseInfo([]byte(`{"title":42,"duration":null}`))
	require.NoError(t, err)
	assert.Nil(t, info.Title)
	assert.Nil(t, info.Duration)

	_, err = parseInfo([]byte(`garbage`))
	assert.Error(t, err)
}

func TestClient_Info(t *testing.T) {
	bin := writeTool(t, `echo '{"title":"Live Set","duration":3600}'`)
	c := NewClient(bin, time.Second, zerolog.Nop())

	info, err := c.Info(context.Background(), mustURL(t, "https://example.com/v/1"))
	require.NoError(t, err)
	require.NotNil(t, info.Title)
	assert.Equal(t, "Live Set", *info.Title)
}

func TestClient_InfoFailure(t *testing.T) {
	bin := writeTool(t, `echo "ERROR: Unsupported URL: https://example.com/v/1" >&2; exit 1`)
	c := NewClient(bin, time.Second, zerolog.Nop())

	_, err := c.Info(context.Background(), mustURL(t, "https://example.com/v/1"))
	var toolErr *toolio.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, 1, toolErr.ExitCode)
	assert.True(t, strings.HasPrefix(toolErr.Detail, "ERROR: Unsupported URL"))
}

func TestClient_InfoTimeout(t *testing.T) {
	bin := writeTool(t, `sleep 10`)
	c := NewClient(bin, 200*time.Millisecond, zerolog.Nop())

	start := time.Now()
	_, err := c.Info(context.Background(), mustURL(t, "https://example.com/v/1"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

const fakeFetch = `
while [ $# -gt 0 ]; do
  case "$1" in
    -o) shift; tpl="$1" ;;
  esac
  shift
done
out=$(printf '%s' "$tpl" | sed 's/%(ext)s/webm/')
echo "[youtube] abc: Downloading webpage"
echo "[download]  10.0% of 3.00MiB at 1.00MiB/s ETA 00:02"
echo "[download]  55.5% of 3.00MiB at 1.00MiB/s ETA 00:01"
echo "[download] 100% of 3.00MiB in 00:00:01"
printf 'data' > "$out"
echo "$out"
`

func TestClient_Fetch(t *testing.T) {
	dir := t.TempDir()
	bin := writeTool(t, fakeFetch)
	c := NewClient(bin, time.Second, zerolog.Nop())

	var seen []float64
	printed, err := c.Fetch(context.Background(), FetchSpec{
		URL:            mustURL(t, "https://example.com/v/1"),
		OutputTemplate: filepath.Join(dir, "clip-abc-input.%(ext)s"),
	}, func(p float64) { seen = append(seen, p) })
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "clip-abc-input.webm"), printed)
	require.NotEmpty(t, seen)
	assert.InDelta(t, 10.0, seen[0], 1e-9)
	assert.InDelta(t, 100.0, seen[len(seen)-1], 1e-9)
	assert.LessOrEqual(t, len(seen), 3)
}

func TestClient_FetchFailure(t *testing.T) {
	bin := writeTool(t, `echo "ERROR: [generic] Unable to download webpage" >&2; exit 1`)
	c := NewClient(bin, time.Second, zerolog.Nop())

	printed, err := c.Fetch(context.Background(), FetchSpec{
		URL:            mustURL(t, "https://example.com/v/1"),
		OutputTemplate: filepath.Join(t.TempDir(), "clip-abc-input.%(ext)s"),
	}, nil)
	assert.Empty(t, printed)

	var toolErr *toolio.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "ERROR: [generic] Unable to download webpage", toolErr.Detail)
}
