// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_UnwrapsChain(t *testing.T) {
	cause := errors.New("exit status 1")
	err := fmt.Errorf("job clip-1: %w", Upstream(FetchFailedMessage, cause))

	assert.Equal(t, KindUpstreamFailure, KindOf(err))
	assert.Equal(t, FetchFailedMessage, Message(err))
	assert.ErrorIs(t, err, cause)
}

func TestMessage_HidesUnclassified(t *testing.T) {
	err := errors.New("open /home/alice/secret: permission denied")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.NotContains(t, Message(err), "/home/alice")
}

func TestIs_MatchesKindAndMessage(t *testing.T) {
	err := fmt.Errorf("wrap: %w", InvalidInput("URL is required."))
	assert.ErrorIs(t, err, InvalidInput("URL is required."))
	assert.NotErrorIs(t, err, InvalidInput("Invalid URL."))
	assert.NotErrorIs(t, err, NotFound("URL is required."))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthorized:     http.StatusForbidden,
		KindInvalidInput:     http.StatusBadRequest,
		KindUpstreamFailure:  http.StatusBadGateway,
		KindResourceNotFound: http.StatusNotFound,
		KindUserCanceled:     http.StatusConflict,
		KindInternal:         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(), kind.String())
	}
	assert.Equal(t, "Unauthorized", Unauthorized().Error())
}
