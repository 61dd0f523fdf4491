// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package apperr defines the user-facing error taxonomy shared by the
// validators, the media pipeline and the HTTP boundary.
//
// The Message of an *Error is always safe to show to the UI: it never
// contains internal paths, tool output or stack traces. The wrapped cause is
// for logs only.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindInvalidInput
	KindUpstreamFailure
	KindResourceNotFound
	KindUserCanceled
)

// UnauthorizedMessage is the only text a rejected caller ever sees.
const UnauthorizedMessage = "Unauthorized"

// FetchFailedMessage is shown for every failure of the external fetch tool.
const FetchFailedMessage = "This link isn't supported or couldn't be reached"

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindUpstreamFailure:
		return "UPSTREAM_FAILURE"
	case KindResourceNotFound:
		return "NOT_FOUND"
	case KindUserCanceled:
		return "USER_CANCELED"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps a kind onto the status used by the API.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUpstreamFailure:
		return http.StatusBadGateway
	case KindResourceNotFound:
		return http.StatusNotFound
	case KindUserCanceled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a UI-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind and message, so sentinel
// values declared with New can be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an error of the given kind carrying cause for logging.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// InvalidInput reports a validator rejection.
func InvalidInput(msg string) *Error {
	return New(KindInvalidInput, msg)
}

// NotFound reports a missing file or artifact.
func NotFound(msg string) *Error {
	return New(KindResourceNotFound, msg)
}

// Upstream reports a failure of an external tool.
func Upstream(msg string, cause error) *Error {
	return Wrap(KindUpstreamFailure, msg, cause)
}

// Canceled reports a user cancellation.
func Canceled(msg string) *Error {
	return New(KindUserCanceled, msg)
}

// Unauthorized returns the generic sender rejection.
func Unauthorized() *Error {
	return New(KindUnauthorized, UnauthorizedMessage)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the UI-safe message for err. Unclassified errors are
// reduced to a generic text so internal details never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong"
}
