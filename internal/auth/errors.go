// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package auth

import (
	"errors"
	"fmt"
)

// Error taxonomy for the authentication layer. Callers distinguish these
// with errors.Is; everything else is wrapped transport or decode failure.
var (
	// ErrMalformedToken marks a token that failed the structural check.
	// Such tokens are never sent to the server.
	ErrMalformedToken = errors.New("token is not well-formed")

	// ErrAuthRejected marks a 401/403 for a well-formed token.
	ErrAuthRejected = errors.New("server rejected token")

	// ErrRefreshRejected marks a 400/401 from the token endpoint. It
	// triggers fallback to interactive re-authentication, not a hard
	// failure.
	ErrRefreshRejected = errors.New("refresh token rejected")

	// ErrAuthInProgress is returned to a contending caller while another
	// authentication flow holds the single-flight guard. Back off and
	// retry; do not treat as terminal.
	ErrAuthInProgress = errors.New("authentication already in progress")

	// ErrAuthCancelled means the user declined the interactive prompt.
	ErrAuthCancelled = errors.New("authentication cancelled")
)

// NetworkError wraps connectivity, DNS, and timeout failures with the
// operation that hit them so the caller can show an actionable message.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
