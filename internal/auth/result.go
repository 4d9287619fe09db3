// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package auth

// ResultKind discriminates the outcomes of an authentication attempt.
// A bare boolean would conflate "user declined" with "network broke";
// the UI treats those very differently.
type ResultKind int

const (
	ResultAuthenticated ResultKind = iota
	ResultCancelled
	ResultFailed
)

// AuthResult is the tagged outcome of Coordinator.Authenticate.
type AuthResult struct {
	Kind   ResultKind
	Token  string // set when Kind == ResultAuthenticated
	Reason string // set when Kind == ResultCancelled
	Cause  error  // set when Kind == ResultFailed
}

// Authenticated builds a successful result carrying the usable token.
func Authenticated(token string) AuthResult {
	return AuthResult{Kind: ResultAuthenticated, Token: token}
}

// Cancelled builds a result for a user-declined flow.
func Cancelled(reason string) AuthResult {
	return AuthResult{Kind: ResultCancelled, Reason: reason}
}

// Failed builds a result for a flow that broke for reasons other than the
// user declining.
func Failed(cause error) AuthResult {
	return AuthResult{Kind: ResultFailed, Cause: cause}
}

// IsAuthenticated reports whether the flow produced a usable token.
func (r AuthResult) IsAuthenticated() bool { return r.Kind == ResultAuthenticated }

// IsCancelled reports whether the user declined.
func (r AuthResult) IsCancelled() bool { return r.Kind == ResultCancelled }

// IsFailed reports whether the flow failed.
func (r AuthResult) IsFailed() bool { return r.Kind == ResultFailed }

// Err converts a non-authenticated result into an error for callers that
// propagate rather than branch.
func (r AuthResult) Err() error {
	switch r.Kind {
	case ResultAuthenticated:
		return nil
	case ResultCancelled:
		return ErrAuthCancelled
	default:
		return r.Cause
	}
}
