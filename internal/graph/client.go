// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// client.go - Thin JSON convenience layer over the executor.

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gebl/meeting-notify/internal/auth"
	"github.com/gebl/meeting-notify/internal/httputil"
	"github.com/gebl/meeting-notify/internal/logging"
)

// Client bundles the API base URL with the executor for callers that just
// want decoded JSON.
type Client struct {
	BaseURL  string
	Executor *Executor
}

// NewClient returns a client for baseURL, e.g. https://graph.microsoft.com/v1.0.
func NewClient(baseURL string, executor *Executor) *Client {
	return &Client{BaseURL: baseURL, Executor: executor}
}

// GetJSON executes an authenticated GET against url (absolute) and decodes
// the 200 body into out. A 401/403 that survived the executor's re-auth
// cascade surfaces as ErrAuthRejected.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	resp, err := c.Executor.Execute(ctx, RequestSpec{Method: http.MethodGet, URL: url})
	if err != nil {
		return err
	}
	body, err := httputil.ReadBody(resp, "graph GET")
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// decoded below
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("graph returned HTTP %d after re-authentication: %w",
			resp.StatusCode, auth.ErrAuthRejected)
	default:
		logging.GraphLogger.Debug("Unexpected graph response", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("graph request failed: HTTP %d - %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode graph response: %w", err)
	}
	return nil
}
