// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/clipmp3/internal/log"
)

// DeliveryMode selects how a finished MP3 reaches the user.
type DeliveryMode string

const (
	// DeliveryDialog asks for a destination and writes the file there.
	DeliveryDialog DeliveryMode = "dialog"
	// DeliveryBuffer returns the bytes to the caller.
	DeliveryBuffer DeliveryMode = "buffer"
)

// Valid reports whether m is a known mode.
func (m DeliveryMode) Valid() bool {
	return m == DeliveryDialog || m == DeliveryBuffer
}

// copyAtomic writes src to dst through a pending file so a crash never
// leaves a truncated MP3 at the destination.
func copyAtomic(ctx context.Context, src, dst string) (err error) {
	logger := log.FromContext(ctx)

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open converted file: %w", err)
	}
	defer func() { _ = in.Close() }()

	pendingFile, err := renameio.NewPendingFile(dst, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if cerr := pendingFile.Cleanup(); cerr != nil {
			logger.Debug().Err(cerr).Msg("cleanup pending file")
		}
	}()

	if _, err := io.Copy(pendingFile, in); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace destination: %w", err)
	}
	return nil
}
