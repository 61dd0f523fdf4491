// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"strconv"

	"github.com/ManuGH/clipmp3/internal/media"
)

// AudioBitrate is fixed for every output regardless of speed.
const AudioBitrate = "192k"

// TranscodeSpec describes one MP3 conversion.
type TranscodeSpec struct {
	Input  string
	Output string
	Params media.Params
}

// BuildArgs converts the spec into ffmpeg flags. The input is always passed
// through -i, never positionally, and the output path is the last argument.
func BuildArgs(spec TranscodeSpec) []string {
	args := []string{"-y", "-hide_banner", "-nostdin", "-loglevel", "error"}

	seek, hasSeek, duration, hasDuration := spec.Params.Window()
	if hasSeek {
		args = append(args, "-ss", formatSeconds(seek))
	}
	args = append(args, "-i", spec.Input)
	if hasDuration {
		args = append(args, "-t", formatSeconds(duration))
	}

	args = append(args, "-vn")
	if chain := media.AtempoChain(spec.Params.Speed()); chain != "" {
		args = append(args, "-filter:a", chain)
	}

	args = append(args, "-acodec", "libmp3lame", "-b:a", AudioBitrate, spec.Output)
	return args
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
