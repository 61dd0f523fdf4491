// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import "testing"

func TestAtempoChain(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{1, ""},
		{0.25, "atempo=0.5,atempo=0.5"},
		{0.3, "atempo=0.3"},
		{0.5, "atempo=0.5"},
		{1.25, "atempo=1.25"},
		{2, "atempo=2"},
		{3, "atempo=2.0,atempo=1.5"},
		{4, "atempo=2.0,atempo=2"},
	}
	for _, tt := range tests {
		if got := AtempoChain(tt.speed); got != tt.want {
			t.Errorf("AtempoChain(%v) = %q, want %q", tt.speed, got, tt.want)
		}
	}
}
