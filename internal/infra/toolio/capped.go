// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package toolio

import (
	"bytes"
	"errors"
)

// ErrOutputTooLarge is returned once a CappedBuffer would exceed its limit.
var ErrOutputTooLarge = errors.New("tool output exceeds limit")

// CappedBuffer is an io.Writer that refuses to hold more than Max bytes.
// A failing Write makes exec.Cmd abort the copy and report the error from
// Wait, so the child sees a broken pipe instead of unbounded buffering.
type CappedBuffer struct {
	Max int
	buf bytes.Buffer
}

func NewCappedBuffer(max int) *CappedBuffer {
	return &CappedBuffer{Max: max}
}

func (c *CappedBuffer) Write(p []byte) (int, error) {
	if c.buf.Len()+len(p) > c.Max {
		return 0, ErrOutputTooLarge
	}
	return c.buf.Write(p)
}

func (c *CappedBuffer) Bytes() []byte {
	return c.buf.Bytes()
}

func (c *CappedBuffer) Len() int {
	return c.buf.Len()
}
