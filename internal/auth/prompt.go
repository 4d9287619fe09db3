// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// prompt.go - Interactive token acquisition.
//
// PromptProvider is the narrow boundary to whatever obtains a token from
// a human: a local callback HTTP listener, a terminal prompt, or a UI
// dialog. The coordinator only cares that Prompt blocks until a token
// arrives or the user declines.

package auth

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"sync"

	"github.com/gebl/meeting-notify/internal/logging"
)

// PromptResult carries what the user supplied. RefreshToken may be empty.
type PromptResult struct {
	AccessToken  string
	RefreshToken string
}

// PromptProvider blocks until a human supplies a token or cancels.
// Implementations must strip a leading case-insensitive "Bearer " prefix
// from user-entered tokens and return ErrAuthCancelled when the user
// declines. hint carries an explanatory message for re-prompts (for
// example "the server rejected the previous token").
type PromptProvider interface {
	Prompt(ctx context.Context, signInURL, hint string) (PromptResult, error)
}

// LocalServerPrompt serves a small token-entry form on a local HTTP
// listener and blocks until the form is submitted or the context is
// cancelled. The sign-in URL is logged so the user can complete the
// provider's sign-in in a browser and paste the resulting token.
type LocalServerPrompt struct {
	// Addr is the listen address, ":8080" when empty. The path served
	// is /token.
	Addr string
}

type promptSubmission struct {
	result    PromptResult
	cancelled bool
}

// Prompt implements PromptProvider.
func (p *LocalServerPrompt) Prompt(ctx context.Context, signInURL, hint string) (PromptResult, error) {
	addr := p.Addr
	if addr == "" {
		addr = ":8080"
	}

	subCh := make(chan promptSubmission, 1)
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeTokenForm(w, hint)
			return
		}
		if r.FormValue("cancel") != "" {
			w.Write([]byte("Authentication cancelled. You may close this window."))
			once.Do(func() { subCh <- promptSubmission{cancelled: true} })
			return
		}
		access := StripBearerPrefix(r.FormValue("access_token"))
		if access == "" {
			http.Error(w, "Missing access token", http.StatusBadRequest)
			return
		}
		w.Write([]byte("Token received. You may close this window."))
		once.Do(func() {
			subCh <- promptSubmission{result: PromptResult{
				AccessToken:  access,
				RefreshToken: StripBearerPrefix(r.FormValue("refresh_token")),
			}}
		})
	})

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.AuthLogger.Error("Token prompt server failed", "error", err)
			once.Do(func() { subCh <- promptSubmission{cancelled: true} })
		}
	}()
	defer func() {
		if err := server.Shutdown(context.Background()); err != nil {
			logging.AuthLogger.Warn("Failed to shut down token prompt server", "error", err)
		}
	}()

	logging.AuthLogger.Info("Waiting for token",
		"sign_in_url", signInURL, "entry_url", "http://localhost"+addr+"/token")
	if hint != "" {
		logging.AuthLogger.Info("Re-prompting for token", "reason", hint)
	}

	select {
	case sub := <-subCh:
		if sub.cancelled {
			return PromptResult{}, ErrAuthCancelled
		}
		return sub.result, nil
	case <-ctx.Done():
		return PromptResult{}, fmt.Errorf("%w: %v", ErrAuthCancelled, ctx.Err())
	}
}

func writeTokenForm(w http.ResponseWriter, hint string) {
	w.Header().Set("Content-Type", "text/html")
	notice := ""
	if hint != "" {
		notice = "<p><strong>" + html.EscapeString(hint) + "</strong></p>"
	}
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>meeting-notify sign-in</title></head>
<body>
<h1>Paste your access token</h1>
%s
<form method="POST">
<p><textarea name="access_token" rows="4" cols="80" placeholder="access token"></textarea></p>
<p><textarea name="refresh_token" rows="2" cols="80" placeholder="refresh token (optional)"></textarea></p>
<p><button type="submit">Submit</button>
<button type="submit" name="cancel" value="1">Cancel</button></p>
</form>
</body>
</html>`, notice)
}
