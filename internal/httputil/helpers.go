// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// helpers.go - Shared HTTP response utilities.
//
// Small helpers that guarantee response bodies are read and closed so the
// auth and graph layers never leak connections, even on error paths.

package httputil

import (
	"fmt"
	"io"
	"net/http"
)

// WithAutoCleanup executes fn with the response and always closes the body.
func WithAutoCleanup(resp *http.Response, fn func(*http.Response) error) error {
	if resp == nil {
		return fmt.Errorf("nil response provided")
	}
	defer resp.Body.Close()
	return fn(resp)
}

// ReadBody reads and closes the response body.
func ReadBody(resp *http.Response, operation string) ([]byte, error) {
	var body []byte
	err := WithAutoCleanup(resp, func(r *http.Response) error {
		data, readErr := io.ReadAll(r.Body)
		if readErr != nil {
			return fmt.Errorf("failed to read %s response body: %w", operation, readErr)
		}
		body = data
		return nil
	})
	return body, err
}

// DrainAndClose discards any unread body and closes it. Draining lets the
// transport reuse the underlying connection.
func DrainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
