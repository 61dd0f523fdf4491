// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ManuGH/clipmp3/internal/apperr"
)

const (
	// MaxTimeSeconds caps trim points at seven days.
	MaxTimeSeconds = 604800
	MinSpeed       = 0.25
	MaxSpeed       = 4.0
)

var (
	ErrInvalidStartTime = apperr.InvalidInput("Invalid start time")
	ErrInvalidEndTime   = apperr.InvalidInput("Invalid end time")
	ErrInvalidSpeed     = apperr.InvalidInput("Playback speed must be between 0.25 and 4.")
)

// OptionalNumber is a loosely typed numeric request field. JSON null, a
// missing key and the empty string mean "absent". Numbers are taken as-is;
// any other string is coerced the way a form field would be, and anything
// that does not read as a number becomes NaN so that validation rejects it.
type OptionalNumber struct {
	Set   bool
	Value float64
}

// Num returns a present OptionalNumber holding v.
func Num(v float64) OptionalNumber {
	return OptionalNumber{Set: true, Value: v}
}

func (n *OptionalNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = OptionalNumber{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			v = math.NaN()
		}
		*n = Num(v)
		return nil
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			// Out-of-range literals land here; keep them present and invalid.
			v = math.Inf(1)
		}
		*n = Num(v)
		return nil
	default:
		*n = Num(math.NaN())
		return nil
	}
}

func (n OptionalNumber) MarshalJSON() ([]byte, error) {
	if !n.Set || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// RawParams are trim/speed parameters as received from the UI.
type RawParams struct {
	StartTime     OptionalNumber `json:"startTime"`
	EndTime       OptionalNumber `json:"endTime"`
	PlaybackSpeed OptionalNumber `json:"playbackSpeed"`
}

// Params holds bounds-checked trim/speed parameters. A nil field means the
// caller did not ask for it; a playback speed of exactly 1 is never stored.
type Params struct {
	StartTime     *float64 `json:"startTime,omitempty"`
	EndTime       *float64 `json:"endTime,omitempty"`
	PlaybackSpeed *float64 `json:"playbackSpeed,omitempty"`
}

// ValidateDownloadParams bounds each field on its own. Ordering between start
// and end is not checked here; see Params.Window.
func ValidateDownloadParams(raw RawParams) (Params, error) {
	var out Params

	if raw.StartTime.Set {
		v := raw.StartTime.Value
		if !validTime(v) {
			return Params{}, ErrInvalidStartTime
		}
		out.StartTime = &v
	}
	if raw.EndTime.Set {
		v := raw.EndTime.Value
		if !validTime(v) {
			return Params{}, ErrInvalidEndTime
		}
		out.EndTime = &v
	}
	if raw.PlaybackSpeed.Set && raw.PlaybackSpeed.Value != 1 {
		v := raw.PlaybackSpeed.Value
		if math.IsNaN(v) || math.IsInf(v, 0) || v < MinSpeed || v > MaxSpeed {
			return Params{}, ErrInvalidSpeed
		}
		out.PlaybackSpeed = &v
	}
	return out, nil
}

func validTime(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= MaxTimeSeconds
}

// Window derives the transcoder seek and duration. Seek is present whenever a
// start time was given. Duration is end minus start (start defaulting to 0)
// and is only reported when strictly positive; an inverted window means "no
// duration limit", never a negative one.
func (p Params) Window() (seek float64, hasSeek bool, duration float64, hasDuration bool) {
	if p.StartTime != nil {
		seek, hasSeek = *p.StartTime, true
	}
	if p.EndTime != nil {
		if d := *p.EndTime - seek; d > 0 {
			duration, hasDuration = d, true
		}
	}
	return seek, hasSeek, duration, hasDuration
}

// Speed returns the playback speed, 1 when unset.
func (p Params) Speed() float64 {
	if p.PlaybackSpeed == nil {
		return 1
	}
	return *p.PlaybackSpeed
}
