// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// executor.go - Authenticated request execution with transparent re-auth.
//
// One send per call; on 401/403 the coordinator is asked for a fresh
// token and the request is retried exactly once. Retries are reserved
// strictly for authorization failures. 5xx and other statuses pass
// through untouched, bounding worst-case latency against a misbehaving
// server.

package graph

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gebl/meeting-notify/internal/auth"
	"github.com/gebl/meeting-notify/internal/httputil"
	"github.com/gebl/meeting-notify/internal/logging"
)

// Authenticator is the slice of the auth coordinator the executor needs.
type Authenticator interface {
	Authenticate(ctx context.Context) auth.AuthResult
}

// TokenSource supplies the current access token for the first send.
type TokenSource interface {
	AccessToken() string
}

// RequestSpec describes one Graph request. Body is held as bytes so the
// request can be rebuilt verbatim for the retry; the bearer token is the
// only part that changes.
type RequestSpec struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Executor issues authenticated requests against the Graph API.
type Executor struct {
	client *http.Client
	tokens TokenSource
	authn  Authenticator
}

// NewExecutor wires an executor. A nil client selects http.DefaultClient.
func NewExecutor(client *http.Client, tokens TokenSource, authn Authenticator) *Executor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Executor{client: client, tokens: tokens, authn: authn}
}

// Execute sends the request with the current token. On 401/403 it runs
// one re-authentication; with a new token it retries exactly once and
// returns whatever that retry yields. If re-authentication is cancelled
// or fails, the original 401/403 response is returned unchanged so the
// caller can surface it. The caller owns closing the returned body.
func (e *Executor) Execute(ctx context.Context, spec RequestSpec) (*http.Response, error) {
	resp, err := e.send(ctx, spec, e.tokens.AccessToken())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		return resp, nil
	}

	logging.GraphLogger.Info("Authorization failure, attempting re-authentication",
		"status", resp.StatusCode, "url", spec.URL)

	result := e.authn.Authenticate(ctx)
	if !result.IsAuthenticated() {
		logging.GraphLogger.Warn("Re-authentication did not yield a token, returning original response",
			"cancelled", result.IsCancelled())
		return resp, nil
	}

	httputil.DrainAndClose(resp)

	retry, err := e.send(ctx, spec, result.Token)
	if err != nil {
		return nil, err
	}
	logging.GraphLogger.Debug("Retry after re-authentication", "status", retry.StatusCode)
	return retry, nil
}

func (e *Executor) send(ctx context.Context, spec RequestSpec, token string) (*http.Response, error) {
	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}

	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, spec.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range spec.Headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &auth.NetworkError{Op: method + " " + spec.URL, Err: err}
	}
	return resp, nil
}
