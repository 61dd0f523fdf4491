// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"encoding/json"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// FallbackFilename is used whenever a title sanitizes to nothing.
	FallbackFilename = "audio"
	maxFilenameRunes = 200
)

// SanitizeFilename turns an arbitrary title into a base name that is legal on
// every desktop filesystem. It never returns a path separator, so the result
// cannot select a directory. The function is idempotent.
func SanitizeFilename(title string) string {
	s := norm.NFC.String(title)

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r):
			continue
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}

	out := b.String()
	if runes := []rune(out); len(runes) > maxFilenameRunes {
		out = strings.TrimRightFunc(string(runes[:maxFilenameRunes]), unicode.IsSpace)
	}
	out = norm.NFC.String(out)
	// "." and ".." are legal characters but not legal names.
	if strings.Trim(out, ".") == "" {
		return FallbackFilename
	}
	return out
}

// Title is a request title that tolerates non-string JSON. Anything other
// than a JSON string decodes to the empty title, which sanitizes to the
// fallback name.
type Title string

func (t *Title) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = ""
		return nil
	}
	*t = Title(s)
	return nil
}
