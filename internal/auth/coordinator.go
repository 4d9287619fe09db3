// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// coordinator.go - Token lifecycle coordination.
//
// The coordinator decides between reusing a stored token, refreshing it,
// and re-acquiring one interactively, and guarantees that at most one
// refresh/interactive flow runs at a time process-wide. A concurrent
// caller finding a flow in progress fails fast with ErrAuthInProgress
// instead of queueing, which prevents duplicate prompts to the user.
//
// Decision cascade:
//  1. Stored token passes the format check and a live server probe →
//     reuse it.
//  2. A refresh token is stored → POST grant_type=refresh_token. HTTP
//     400/401 means the refresh token is dead and the cascade falls
//     through to step 3; any other failure is transient and surfaces.
//  3. Prompt the user, looping until a server-valid token arrives or the
//     user cancels.
//
// New tokens are persisted synchronously before Authenticate returns
// success, so a crash immediately afterwards cannot lose them.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/gebl/meeting-notify/internal/config"
	"github.com/gebl/meeting-notify/internal/httputil"
	"github.com/gebl/meeting-notify/internal/logging"
)

// CredentialStore is the slice of the config store the coordinator needs.
type CredentialStore interface {
	Credentials() config.Credentials
	AccessToken() string
	RefreshToken() string
	SetTokens(accessToken, refreshToken string) error
	TokenEndpoint() string
	Scope() string
}

// Coordinator owns the token lifecycle. Construct with NewCoordinator.
type Coordinator struct {
	store      CredentialStore
	validator  TokenValidator
	prompt     PromptProvider
	client     *http.Client
	inProgress atomic.Bool
}

// NewCoordinator wires the coordinator. A nil client selects
// http.DefaultClient.
func NewCoordinator(store CredentialStore, validator TokenValidator, prompt PromptProvider, client *http.Client) *Coordinator {
	if client == nil {
		client = http.DefaultClient
	}
	return &Coordinator{
		store:     store,
		validator: validator,
		prompt:    prompt,
		client:    client,
	}
}

// Authenticate obtains a usable token per the reuse → refresh →
// interactive cascade. It never returns a bare error: the AuthResult
// distinguishes success, user cancellation, and failure.
func (c *Coordinator) Authenticate(ctx context.Context) AuthResult {
	if token := c.store.AccessToken(); token != "" {
		if err := CheckFormat(token); err != nil {
			// Cheap check before the expensive one; a malformed token is
			// never sent to the server.
			logging.AuthLogger.Warn("Stored token failed format check",
				"token", maskSensitiveData(token), "error", err)
		} else {
			err := c.validator.Validate(ctx, token)
			if err == nil {
				logging.AuthLogger.Debug("Reusing stored token")
				return Authenticated(token)
			}
			if IsNetworkError(err) {
				return Failed(err)
			}
			logging.AuthLogger.Info("Stored token rejected by server, entering refresh cascade")
		}
	}

	// Single-flight guard: held only as a flag, not a blocking lock, so
	// it reflects "in progress" across the whole interactive flow while
	// contenders fail fast.
	if !c.inProgress.CompareAndSwap(false, true) {
		return Failed(ErrAuthInProgress)
	}
	defer c.inProgress.Store(false)

	if c.store.RefreshToken() != "" {
		err := c.refresh(ctx)
		if err == nil {
			return Authenticated(c.store.AccessToken())
		}
		if !errors.Is(err, ErrRefreshRejected) {
			return Failed(err)
		}
		logging.AuthLogger.Info("Refresh token rejected, falling back to interactive authentication")
	}

	return c.interactive(ctx)
}

// Refresh exchanges the stored refresh token for new tokens, holding the
// single-flight guard for the duration. Exposed for manual refresh.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.inProgress.CompareAndSwap(false, true) {
		return ErrAuthInProgress
	}
	defer c.inProgress.Store(false)
	return c.refresh(ctx)
}

func (c *Coordinator) refresh(ctx context.Context) error {
	creds := c.store.Credentials()
	if creds.RefreshToken == "" {
		return fmt.Errorf("no refresh token stored: %w", ErrRefreshRejected)
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", creds.RefreshToken)
	if scope := c.store.Scope(); scope != "" {
		data.Set("scope", scope)
	}
	if creds.ClientID != "" {
		data.Set("client_id", creds.ClientID)
	}
	if creds.ClientSecret != "" {
		data.Set("client_secret", creds.ClientSecret)
	}
	if creds.RedirectURI != "" {
		data.Set("redirect_uri", creds.RedirectURI)
	}

	endpoint := c.store.TokenEndpoint()
	logging.AuthLogger.Info("Refreshing access token", "endpoint", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Op: "token refresh", Err: err}
	}
	body, err := httputil.ReadBody(resp, "token refresh")
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// parsed below
	case http.StatusBadRequest, http.StatusUnauthorized:
		logging.AuthLogger.Warn("Token endpoint rejected refresh",
			"status", resp.StatusCode)
		return fmt.Errorf("token endpoint returned HTTP %d: %w", resp.StatusCode, ErrRefreshRejected)
	default:
		return fmt.Errorf("token refresh failed: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var res struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if res.AccessToken == "" {
		return fmt.Errorf("refresh response carried no access token")
	}

	// The endpoint may omit refresh_token on rotation; SetTokens keeps
	// the previous one in that case.
	if err := c.store.SetTokens(res.AccessToken, res.RefreshToken); err != nil {
		return fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}
	logging.AuthLogger.Info("Token refresh successful",
		"expires_in_seconds", res.ExpiresIn,
		"rotated_refresh_token", res.RefreshToken != "")
	return nil
}

// interactive loops the prompt until a server-valid token arrives, the
// user cancels, or something breaks. Caller holds the single-flight guard.
func (c *Coordinator) interactive(ctx context.Context) AuthResult {
	signInURL := c.store.Credentials().SignInURL
	hint := ""

	for {
		if err := ctx.Err(); err != nil {
			return Cancelled(err.Error())
		}

		res, err := c.prompt.Prompt(ctx, signInURL, hint)
		if err != nil {
			if errors.Is(err, ErrAuthCancelled) {
				logging.AuthLogger.Info("User cancelled interactive authentication")
				return Cancelled("user declined token prompt")
			}
			return Failed(fmt.Errorf("token prompt failed: %w", err))
		}

		// The prompt contract already strips "Bearer ", but a prompt
		// implementation outside this package might not.
		token := StripBearerPrefix(res.AccessToken)
		if err := CheckFormat(token); err != nil {
			hint = "The supplied token is not well-formed; expected three dot-separated segments."
			logging.AuthLogger.Warn("Prompted token failed format check", "error", err)
			continue
		}

		if err := c.validator.Validate(ctx, token); err != nil {
			if IsNetworkError(err) {
				return Failed(err)
			}
			hint = "The server rejected the supplied token; it may have expired. Sign in again and paste a fresh one."
			logging.AuthLogger.Warn("Prompted token rejected by server")
			continue
		}

		if err := c.store.SetTokens(token, StripBearerPrefix(res.RefreshToken)); err != nil {
			return Failed(fmt.Errorf("failed to persist tokens: %w", err))
		}
		logging.AuthLogger.Info("Interactive authentication successful",
			"token", maskSensitiveData(token))
		return Authenticated(token)
	}
}
