package jira

import (
	"github.com/tansive/jiraclient/internal/common/apperrors"
)

// Error taxonomy. Every error returned or delivered by the client is derived
// from one of the sentinels below and matches it with errors.Is. Errors coming
// from an AuthProvider or Executor are attached as causes, so they may match a
// second sentinel if they were built from one; classify by the pipeline stage
// (ErrInvalidRequest, ErrAuthentication, ErrTransport, ErrParse) first.
var (
	ErrJira = apperrors.New("jira client error")

	// ErrConfiguration is returned by NewClient only. No request is ever
	// attempted with an invalid configuration.
	ErrConfiguration = ErrJira.New("invalid client configuration")

	// ErrInvalidRequest means the request descriptor or endpoint parameters
	// were rejected before authentication.
	ErrInvalidRequest = ErrJira.New("invalid request")

	// ErrAuthentication means the AuthProvider could not produce a token.
	ErrAuthentication = ErrJira.New("authentication failed")

	// ErrTransport covers network failures and non-2xx responses. The
	// latter carry an *HTTPError reachable with errors.As.
	ErrTransport = ErrJira.New("transport failed")

	// ErrParse means the response body was not valid JSON or could not be
	// converted into the declared result type.
	ErrParse = ErrJira.New("unable to parse response")
)
