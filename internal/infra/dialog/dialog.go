// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package dialog shows native file dialogs and reveals files in the OS file
// manager. On Linux the dialogs need zenity (or a compatible binary) on
// PATH; macOS uses osascript.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ncruces/zenity"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"

	"github.com/ManuGH/clipmp3/internal/log"
)

// MediaFilter restricts the open dialog to the accepted source formats.
var MediaFilter = zenity.FileFilters{
	{Name: "Audio and video (MP3, MP4)", Patterns: []string{"*.mp3", "*.mp4"}, CaseFold: true},
}

// Native implements the dialogs with the host desktop.
type Native struct {
	logger zerolog.Logger

	selectFile     func(options ...zenity.Option) (string, error)
	selectFileSave func(options ...zenity.Option) (string, error)
	openPath       func(path string) error
}

func NewNative(logger zerolog.Logger) *Native {
	// xdg-open and open chatter on stdout, which carries the ready record.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return &Native{
		logger:         logger,
		selectFile:     zenity.SelectFile,
		selectFileSave: zenity.SelectFileSave,
		openPath:       browser.OpenFile,
	}
}

// OpenMedia asks the user for an MP3 or MP4 file. ok is false on cancel.
func (n *Native) OpenMedia(ctx context.Context) (path string, ok bool, err error) {
	path, err = n.selectFile(
		zenity.Context(ctx),
		zenity.Title("Choose an audio or video file"),
		MediaFilter,
	)
	return n.result("open", path, err)
}

// SaveMP3 asks for a destination, pre-filled with suggested. ok is false on cancel.
func (n *Native) SaveMP3(ctx context.Context, suggested string) (path string, ok bool, err error) {
	path, err = n.selectFileSave(
		zenity.Context(ctx),
		zenity.Title("Save MP3"),
		zenity.Filename(suggested),
		zenity.ConfirmOverwrite(),
		zenity.FileFilters{{Name: "MP3 audio", Patterns: []string{"*.mp3"}, CaseFold: true}},
	)
	return n.result("save", path, err)
}

// Reveal opens the directory containing path.
func (n *Native) Reveal(ctx context.Context, path string) error {
	dir := filepath.Dir(path)
	if err := n.openPath(dir); err != nil {
		return fmt.Errorf("open file manager: %w", err)
	}
	logger := log.WithContext(ctx, n.logger)
	logger.Debug().
		Str(log.FieldEvent, "dialog.reveal").
		Str(log.FieldPath, dir).
		Msg("opened file manager")
	return nil
}

func (n *Native) result(kind, path string, err error) (string, bool, error) {
	switch {
	case errors.Is(err, zenity.ErrCanceled):
		return "", false, nil
	case err != nil:
		n.logger.Warn().Err(err).
			Str(log.FieldEvent, "dialog.failed").
			Str("dialog", kind).
			Msg("native dialog failed")
		return "", false, fmt.Errorf("%s dialog: %w", kind, err)
	case path == "":
		return "", false, nil
	}
	return path, true, nil
}
