// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package net

import (
	"encoding/binary"
	"net"
	"strconv"
	"strings"
)

// ipv4Readings returns every IPv4 address host could denote as a numeric
// literal: dotted decimal with four octets, a bare 32-bit decimal integer,
// and the inet_aton forms (one to four parts, each decimal, 0x-hex or
// 0-octal) that resolvers accept. Unparseable hosts yield nothing.
func ipv4Readings(host string) []net.IP {
	var out []net.IP
	if ip, ok := parseDottedDecimal(host); ok {
		out = append(out, ip)
	}
	if ip, ok := parseDecimalUint32(host); ok {
		out = append(out, ip)
	}
	if ip, ok := parseInetAton(host); ok {
		out = append(out, ip)
	}
	return out
}

func parseDottedDecimal(host string) (net.IP, bool) {
	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return nil, false
	}
	ip := make(net.IP, 4)
	for i, p := range parts {
		if p == "" || len(p) > 3 || !isDigits(p) {
			return nil, false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return nil, false
		}
		ip[i] = byte(n)
	}
	return ip, true
}

func parseDecimalUint32(host string) (net.IP, bool) {
	if host == "" || !isDigits(host) {
		return nil, false
	}
	n, err := strconv.ParseUint(host, 10, 32)
	if err != nil {
		return nil, false
	}
	return uint32ToIP(uint32(n)), true
}

func parseInetAton(host string) (net.IP, bool) {
	parts := strings.Split(host, ".")
	if len(parts) == 0 || len(parts) > 4 {
		return nil, false
	}
	vals := make([]uint64, len(parts))
	for i, p := range parts {
		v, ok := parseAtonPart(p)
		if !ok {
			return nil, false
		}
		vals[i] = v
	}

	// Every part but the last is one octet; the last fills the remaining bytes.
	last := len(vals) - 1
	for _, v := range vals[:last] {
		if v > 0xff {
			return nil, false
		}
	}
	restBits := uint(8 * (4 - last))
	if vals[last] >= uint64(1)<<restBits {
		return nil, false
	}

	var n uint64
	for _, v := range vals[:last] {
		n = n<<8 | v
	}
	n = n<<restBits | vals[last]
	return uint32ToIP(uint32(n)), true
}

func parseAtonPart(p string) (uint64, bool) {
	if p == "" {
		return 0, false
	}
	base := 10
	digits := p
	switch {
	case strings.HasPrefix(p, "0x") || strings.HasPrefix(p, "0X"):
		base = 16
		digits = p[2:]
		if digits == "" {
			// "0x" alone is zero for inet_aton.
			return 0, true
		}
	case len(p) > 1 && p[0] == '0':
		base = 8
		digits = p[1:]
	}
	for _, r := range digits {
		if !isDigitInBase(r, base) {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isDigitInBase(r rune, base int) bool {
	switch base {
	case 8:
		return r >= '0' && r <= '7'
	case 16:
		return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
	default:
		return r >= '0' && r <= '9'
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func uint32ToIP(n uint32) net.IP {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, n)
	return ip
}
