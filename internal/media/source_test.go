// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadRequest_Source(t *testing.T) {
	tests := []struct {
		name    string
		req     DownloadRequest
		want    Source
		wantErr error
	}{
		{name: "neither", req: DownloadRequest{}, wantErr: ErrSourceRequired},
		{name: "blank both", req: DownloadRequest{URL: " ", SourceFilePath: "\t"}, wantErr: ErrSourceRequired},
		{name: "both", req: DownloadRequest{URL: "https://a", SourceFilePath: "/x.mp3"}, wantErr: ErrSourceAmbiguous},
		{name: "remote", req: DownloadRequest{URL: "https://a"}, want: RemoteSource{URL: "https://a"}},
		{name: "local", req: DownloadRequest{SourceFilePath: "/x.mp3"}, want: LocalSource{Path: "/x.mp3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.Source()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
