// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package net

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"

	"github.com/ManuGH/clipmp3/internal/apperr"
)

// MaxURLLength is the longest URL (in characters) accepted from the UI.
const MaxURLLength = 2048

var (
	ErrURLRequired       = apperr.InvalidInput("URL is required.")
	ErrURLTooLong        = apperr.InvalidInput("URL is too long.")
	ErrURLInvalid        = apperr.InvalidInput("Invalid URL.")
	ErrURLScheme         = apperr.InvalidInput("Only HTTP and HTTPS URLs are allowed.")
	ErrURLLocalhost      = apperr.InvalidInput("Localhost URLs are not allowed.")
	ErrURLPrivateNetwork = apperr.InvalidInput("Private network URLs are not allowed.")
	ErrURLBlockedAddress = apperr.InvalidInput("Localhost and private network URLs are not allowed")
)

// ValidatedURL is a URL that passed ValidateMediaURL. It is opaque: the
// fetcher receives String() verbatim and nothing re-parses it.
type ValidatedURL struct {
	raw string
}

func (u ValidatedURL) String() string {
	return u.raw
}

// IsZero reports whether u was never validated.
func (u ValidatedURL) IsZero() bool {
	return u.raw == ""
}

var localhostNames = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
	"::1":       {},
	"[::1]":     {},
}

var privateHostPattern = regexp.MustCompile(`^(10\.|192\.168\.|172\.(1[6-9]|2[0-9]|3[01])\.)`)

var mappedLoopbackPrefixes = []string{"::ffff:127.", "::ffff:0x7f", "::ffff:7f"}

// ValidateMediaURL decides whether input may be handed to the external fetch
// tool. Checks run in a fixed order and stop at the first violation, so the
// same input always yields the same outcome. No network access happens here:
// a hostname that later resolves to a private address is not caught.
func ValidateMediaURL(input string) (ValidatedURL, error) {
	if utf8.RuneCountInString(input) > MaxURLLength {
		return ValidatedURL{}, ErrURLTooLong
	}
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ValidatedURL{}, ErrURLRequired
	}
	// Parsers disagree on backslashes in the authority; refuse them outright.
	if strings.ContainsRune(trimmed, '\\') {
		return ValidatedURL{}, ErrURLInvalid
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" {
		return ValidatedURL{}, ErrURLInvalid
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidatedURL{}, ErrURLScheme
	}
	if u.Host == "" || u.Hostname() == "" {
		return ValidatedURL{}, ErrURLInvalid
	}

	hosts := hostSpellings(u.Hostname())

	for _, h := range hosts {
		if isLocalhostName(h) {
			return ValidatedURL{}, ErrURLLocalhost
		}
	}
	for _, h := range hosts {
		if privateHostPattern.MatchString(h) {
			return ValidatedURL{}, ErrURLPrivateNetwork
		}
	}
	for _, h := range hosts {
		if isBlockedIPLiteral(h) {
			return ValidatedURL{}, ErrURLBlockedAddress
		}
	}

	return ValidatedURL{raw: trimmed}, nil
}

// hostSpellings returns the lower-cased host plus its IDNA lookup mapping when
// that differs (full-width digits and dots collapse to ASCII there). A host
// that cannot be mapped is classified by its raw spelling only.
func hostSpellings(hostname string) []string {
	host := strings.TrimSuffix(strings.ToLower(hostname), ".")
	out := []string{host}
	if strings.Contains(host, ":") {
		return out
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		ascii = strings.TrimSuffix(strings.ToLower(ascii), ".")
		if ascii != host {
			out = append(out, ascii)
		}
	}
	return out
}

func isLocalhostName(host string) bool {
	if _, ok := localhostNames[host]; ok {
		return true
	}
	return strings.HasSuffix(host, ".localhost")
}

func isBlockedIPLiteral(host string) bool {
	for _, prefix := range mappedLoopbackPrefixes {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}

	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return isBlockedIPv4(v4)
		}
		return ip.IsLoopback() || ip.IsUnspecified() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
	}

	for _, v4 := range ipv4Readings(host) {
		if isBlockedIPv4(v4) {
			return true
		}
	}
	return false
}

func isBlockedIPv4(ip net.IP) bool {
	switch {
	case ip[0] == 127, ip[0] == 10, ip[0] == 0:
		return true
	case ip[0] == 172 && ip[1] >= 16 && ip[1] <= 31:
		return true
	case ip[0] == 192 && ip[1] == 168:
		return true
	case ip[0] == 169 && ip[1] == 254:
		return true
	}
	return false
}
