// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"strings"

	"github.com/ManuGH/clipmp3/internal/apperr"
)

var (
	ErrSourceRequired  = apperr.InvalidInput("URL or file path is required.")
	ErrSourceAmbiguous = apperr.InvalidInput("Provide either a URL or a file path, not both.")
)

// Kind names the source variant in logs and metrics.
type Kind string

const (
	KindRemote Kind = "remote"
	KindLocal  Kind = "local"
)

// Source is where a conversion reads its media from. It is either a
// RemoteSource or a LocalSource; the contents are still unvalidated.
type Source interface {
	Kind() Kind
	isSource()
}

// RemoteSource is a URL handed to the fetch tool after validation.
type RemoteSource struct {
	URL string
}

func (RemoteSource) Kind() Kind { return KindRemote }
func (RemoteSource) isSource()  {}

// LocalSource is a file the user picked on disk.
type LocalSource struct {
	Path string
}

func (LocalSource) Kind() Kind { return KindLocal }
func (LocalSource) isSource()  {}

// DownloadRequest is the body of a conversion call.
type DownloadRequest struct {
	URL            string `json:"url,omitempty"`
	SourceFilePath string `json:"sourceFilePath,omitempty"`
	Title          Title  `json:"title,omitempty"`
	RawParams
}

// Source selects the active source. Exactly one of url and sourceFilePath
// must be non-blank.
func (r DownloadRequest) Source() (Source, error) {
	hasURL := strings.TrimSpace(r.URL) != ""
	hasPath := strings.TrimSpace(r.SourceFilePath) != ""

	switch {
	case hasURL && hasPath:
		return nil, ErrSourceAmbiguous
	case hasURL:
		return RemoteSource{URL: r.URL}, nil
	case hasPath:
		return LocalSource{Path: r.SourceFilePath}, nil
	default:
		return nil, ErrSourceRequired
	}
}
