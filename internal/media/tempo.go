// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"strconv"
	"strings"
)

// AtempoChain returns the ffmpeg audio filter for speed, or "" for 1.
//
// A single atempo stage is documented for 0.5..2.0. Speeds above 2 are split
// into a 2.0 stage and a stage for the remainder. Exactly 0.25 becomes two
// halvings; other speeds below 0.5 still use one stage, which current ffmpeg
// builds accept.
func AtempoChain(speed float64) string {
	switch {
	case speed == 1:
		return ""
	case speed == 0.25:
		return "atempo=0.5,atempo=0.5"
	case speed > 2:
		return strings.Join([]string{"atempo=2.0", "atempo=" + formatFactor(speed/2)}, ",")
	default:
		return "atempo=" + formatFactor(speed)
	}
}

func formatFactor(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
