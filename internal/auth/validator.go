// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// validator.go - Server-side token validation.
//
// Token validity can change server-side at any moment (revocation,
// expiry), so validity is confirmed with a minimal authenticated probe
// against GET /me and never cached beyond a single decision cycle.

package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gebl/meeting-notify/internal/httputil"
	"github.com/gebl/meeting-notify/internal/logging"
)

// TokenValidator confirms a token's current validity with the server.
type TokenValidator interface {
	Validate(ctx context.Context, token string) error
}

// ServerValidator probes the Graph /me endpoint with the candidate token.
type ServerValidator struct {
	baseURL string
	client  *http.Client
}

// NewServerValidator returns a validator probing baseURL (the Graph API
// base, e.g. https://graph.microsoft.com/v1.0). A nil client selects
// http.DefaultClient.
func NewServerValidator(baseURL string, client *http.Client) *ServerValidator {
	if client == nil {
		client = http.DefaultClient
	}
	return &ServerValidator{baseURL: baseURL, client: client}
}

// Validate returns nil when the server accepts the token, ErrAuthRejected
// on 401/403, a NetworkError on transport failure, and a plain error on
// any other unexpected status.
func (v *ServerValidator) Validate(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/me", nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return &NetworkError{Op: "token validation probe", Err: err}
	}
	defer httputil.DrainAndClose(resp)

	logging.AuthLogger.Debug("Token probe response",
		"status", resp.StatusCode, "token", maskSensitiveData(token))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("probe returned HTTP %d: %w", resp.StatusCode, ErrAuthRejected)
	default:
		return fmt.Errorf("probe returned unexpected HTTP %d", resp.StatusCode)
	}
}
