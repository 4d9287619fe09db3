// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// token.go - Structural token checks and small token helpers.
//
// The format check is a cheap pre-filter: a token that does not even have
// JWT shape is never worth a network round-trip, and the Microsoft
// identity platform issues JWT-shaped bearer tokens for Graph.

package auth

import (
	"fmt"
	"strings"
)

// IsWellFormed reports whether token has JWT shape: splitting on "." must
// yield exactly 3 non-empty segments (header.payload.signature). Pure
// function; malformed input simply yields false.
func IsWellFormed(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// CheckFormat returns ErrMalformedToken when token fails the structural
// check, for callers that propagate errors instead of branching.
func CheckFormat(token string) error {
	if !IsWellFormed(token) {
		return fmt.Errorf("%w: expected three dot-separated segments", ErrMalformedToken)
	}
	return nil
}

// StripBearerPrefix removes a leading case-insensitive "Bearer " from a
// user-entered token. People paste straight out of the Authorization
// header.
func StripBearerPrefix(token string) string {
	trimmed := strings.TrimSpace(token)
	const prefix = "bearer "
	if len(trimmed) >= len(prefix) && strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return strings.TrimSpace(trimmed[len(prefix):])
	}
	return trimmed
}

// maskSensitiveData masks token and credential values for logging.
func maskSensitiveData(value string) string {
	if value == "" {
		return "<empty>"
	}
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "***" + value[len(value)-4:]
}
