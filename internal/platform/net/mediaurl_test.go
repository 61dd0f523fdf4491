// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package net

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMediaURL(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr error
	}{
		// === Presence / shape ===
		{name: "empty", input: "", wantErr: ErrURLRequired},
		{name: "whitespace only", input: "   \t ", wantErr: ErrURLRequired},
		{name: "not a url", input: "not a url", wantErr: ErrURLInvalid},
		{name: "scheme without host", input: "http://", wantErr: ErrURLInvalid},
		{name: "backslash authority", input: `https://example.com\@127.0.0.1/`, wantErr: ErrURLInvalid},

		// === Scheme ===
		{name: "ftp", input: "ftp://example.com/file", wantErr: ErrURLScheme},
		{name: "file", input: "file:///etc/passwd", wantErr: ErrURLScheme},
		{name: "javascript", input: "javascript:alert(1)", wantErr: ErrURLScheme},
		{name: "data", input: "data:text/html,hi", wantErr: ErrURLScheme},

		// === Literal localhost set ===
		{name: "localhost", input: "http://localhost/x", wantErr: ErrURLLocalhost},
		{name: "localhost upper", input: "http://LOCALHOST:8080", wantErr: ErrURLLocalhost},
		{name: "localhost trailing dot", input: "http://localhost./", wantErr: ErrURLLocalhost},
		{name: "localhost subdomain", input: "http://app.localhost/", wantErr: ErrURLLocalhost},
		{name: "loopback literal", input: "http://127.0.0.1/", wantErr: ErrURLLocalhost},
		{name: "unspecified literal", input: "https://0.0.0.0", wantErr: ErrURLLocalhost},
		{name: "ipv6 loopback", input: "http://[::1]:3000/", wantErr: ErrURLLocalhost},

		// === Textual private ranges ===
		{name: "ten net", input: "http://10.1.2.3/", wantErr: ErrURLPrivateNetwork},
		{name: "172.16", input: "http://172.16.0.1/", wantErr: ErrURLPrivateNetwork},
		{name: "172.31", input: "http://172.31.255.255/", wantErr: ErrURLPrivateNetwork},
		{name: "192.168", input: "https://192.168.1.10/", wantErr: ErrURLPrivateNetwork},

		// === Numeric alternate forms ===
		{name: "decimal loopback", input: "http://2130706433/", wantErr: ErrURLBlockedAddress},
		{name: "decimal ten net", input: "http://167772161/", wantErr: ErrURLBlockedAddress},
		{name: "hex octet", input: "http://0x7f.0.0.1/", wantErr: ErrURLBlockedAddress},
		{name: "octal octet", input: "http://0177.0.0.1/", wantErr: ErrURLBlockedAddress},
		{name: "short form", input: "http://127.1/", wantErr: ErrURLBlockedAddress},
		{name: "loopback other than .1", input: "http://127.0.0.2/", wantErr: ErrURLBlockedAddress},
		{name: "link local metadata", input: "http://169.254.169.254/latest", wantErr: ErrURLBlockedAddress},
		{name: "mapped loopback dotted", input: "http://[::ffff:127.0.0.1]/", wantErr: ErrURLBlockedAddress},
		{name: "mapped loopback hex", input: "http://[::ffff:7f00:1]/", wantErr: ErrURLBlockedAddress},
		{name: "mapped private", input: "http://[::ffff:10.0.0.1]/", wantErr: ErrURLBlockedAddress},
		{name: "ipv6 unique local", input: "http://[fd00::1]/", wantErr: ErrURLBlockedAddress},
		{name: "full width digits", input: "http://１２７.０.０.１/", wantErr: ErrURLLocalhost},

		// === Accepted ===
		{name: "public ip", input: "https://93.184.216.34/"},
		{name: "172.32 is public", input: "http://172.32.0.1/"},
		{name: "hostname", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "underscore hostname", input: "https://media_cdn.example.com/a.mp4"},
		{name: "numeric looking domain", input: "https://123.com/video"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateMediaURL(tc.input)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tc.input), got.String())
		})
	}
}

func TestValidateMediaURL_LengthCapRegardlessOfContent(t *testing.T) {
	inputs := []string{
		"https://example.com/" + strings.Repeat("a", MaxURLLength),
		strings.Repeat("x", MaxURLLength+1),
		"javascript:" + strings.Repeat("1", MaxURLLength),
		"http://localhost/" + strings.Repeat("b", MaxURLLength),
	}
	for _, in := range inputs {
		_, err := ValidateMediaURL(in)
		assert.ErrorIs(t, err, ErrURLTooLong)
	}

	exact := "https://example.com/" + strings.Repeat("a", MaxURLLength-len("https://example.com/"))
	_, err := ValidateMediaURL(exact)
	assert.NoError(t, err)
}

func TestValidateMediaURL_PublicInputReturnedTrimmed(t *testing.T) {
	got, err := ValidateMediaURL("  https://93.184.216.34/watch?v=1&t=2  ")
	require.NoError(t, err)
	assert.Equal(t, "https://93.184.216.34/watch?v=1&t=2", got.String())
}

func TestValidateMediaURL_PrivateRangesAndDecimalEncodings(t *testing.T) {
	samples := []string{
		"10.0.0.0", "10.0.0.1", "10.128.7.9", "10.255.255.255",
		"172.16.0.0", "172.20.1.1", "172.31.255.254",
		"192.168.0.0", "192.168.1.1", "192.168.255.255",
		"127.0.0.1", "127.255.255.254",
	}
	for _, host := range samples {
		_, err := ValidateMediaURL("https://" + host + "/")
		assert.Error(t, err, host)

		dec := strconv.FormatUint(uint64(binary.BigEndian.Uint32(net.ParseIP(host).To4())), 10)
		_, err = ValidateMediaURL("https://" + dec + "/")
		assert.ErrorIs(t, err, ErrURLBlockedAddress, "%s as %s", host, dec)
	}
}

func TestValidateMediaURL_LocalhostSetAnyCase(t *testing.T) {
	for _, host := range []string{"localhost", "127.0.0.1", "0.0.0.0", "[::1]"} {
		for _, variant := range []string{host, strings.ToUpper(host)} {
			_, err := ValidateMediaURL("http://" + variant)
			assert.Error(t, err, variant)
		}
	}
}

func TestValidateMediaURL_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		_, err := ValidateMediaURL("http://0x7f.1/")
		assert.ErrorIs(t, err, ErrURLBlockedAddress, fmt.Sprint(i))
	}
}

func TestIPv4Readings(t *testing.T) {
	cases := map[string][]string{
		"127.0.0.1":  {"127.0.0.1", "127.0.0.1"},
		"2130706433": {"127.0.0.1", "127.0.0.1"},
		"0x7f.1":     {"127.0.0.1"},
		"010.0.0.1":  {"10.0.0.1", "8.0.0.1"},
		"example":    nil,
		"1.2.3.4.5":  nil,
		"256.1.1.1":  nil,
		"99999999999": nil,
	}
	for host, want := range cases {
		var got []string
		for _, ip := range ipv4Readings(host) {
			got = append(got, ip.String())
		}
		assert.Equal(t, want, got, host)
	}
}
