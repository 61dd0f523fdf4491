// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package toolio

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer_KeepsNewestLines(t *testing.T) {
	r := NewRingBuffer(3)
	assert.Empty(t, r.Lines())
	assert.Equal(t, "", r.Last())

	for i := 1; i <= 5; i++ {
		r.Add(fmt.Sprintf("line %d", i))
	}
	assert.Equal(t, []string{"line 3", "line 4", "line 5"}, r.Lines())
	assert.Equal(t, "line 5", r.Last())
	assert.Equal(t, "line 3\nline 4\nline 5", r.String())
}

func TestRingBuffer_LastSkipsBlank(t *testing.T) {
	r := NewRingBuffer(4)
	r.Add("Conversion failed!")
	r.Add("   ")
	assert.Equal(t, "Conversion failed!", r.Last())
}

func TestCappedBuffer(t *testing.T) {
	c := NewCappedBuffer(8)

	n, err := c.Write([]byte("12345"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = c.Write([]byte("6789"))
	assert.ErrorIs(t, err, ErrOutputTooLarge)
	assert.Equal(t, "12345", string(c.Bytes()))

	_, err = c.Write([]byte("678"))
	require.NoError(t, err)
	assert.Equal(t, 8, c.Len())
}

func TestToolError(t *testing.T) {
	err := NewToolError("ffmpeg", ErrOutputTooLarge, "")
	assert.Equal(t, -1, err.ExitCode)
	assert.Equal(t, "ffmpeg failed", err.Error())
	assert.ErrorIs(t, err, ErrOutputTooLarge)

	err = &ToolError{Tool: "yt-dlp", ExitCode: 1, Detail: "ERROR: Unsupported URL"}
	assert.Equal(t, "yt-dlp exited with status 1: ERROR: Unsupported URL", err.Error())
}
