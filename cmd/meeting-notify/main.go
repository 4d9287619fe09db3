// main.go - Entry point for meeting-notify.
//
// meeting-notify watches a Microsoft 365 calendar through the Microsoft
// Graph API and raises desktop reminders before meetings start. It keeps
// an OAuth bearer token alive across runs: stored tokens are reused while
// they still work, refreshed silently when they expire, and only when
// both paths fail is the user walked through signing in again.
//
// Commands:
//   - auth:       run the sign-in flow and store the resulting tokens
//   - status:     show whether the stored token is well-formed and accepted
//   - refresh:    force a refresh-token exchange
//   - logout:     discard stored tokens
//   - calendars:  list the account's calendars
//   - events:     print upcoming events in the lookahead window
//   - watch:      poll the calendar and fire reminders (the main mode)
//
// Configuration lives in ~/.config/meeting-notify/config.yaml; tokens go
// to the system keyring when one is available. Logging is controlled by
// LOG_LEVEL, LOG_FORMAT and MEETING_NOTIFY_LOG_FILE.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gebl/meeting-notify/internal/auth"
	"github.com/gebl/meeting-notify/internal/calendar"
	"github.com/gebl/meeting-notify/internal/config"
	"github.com/gebl/meeting-notify/internal/graph"
	"github.com/gebl/meeting-notify/internal/logging"
	"github.com/gebl/meeting-notify/internal/notify"
)

// Version is the current version of meeting-notify.
const Version = "1.0.0"

var configDir string

// app holds the wired object graph shared by all commands.
type app struct {
	store       *config.Store
	coordinator *auth.Coordinator
	client      *graph.Client
	calendars   *calendar.Service
}

// buildApp wires the full stack from the config store outward.
func buildApp() (*app, error) {
	store, err := config.Open(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration: %w", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	coordinator := auth.NewCoordinator(
		store,
		auth.NewServerValidator(store.GraphBaseURL(), httpClient),
		&auth.LocalServerPrompt{},
		httpClient,
	)

	executor := graph.NewExecutor(httpClient, store, coordinator)
	client := graph.NewClient(store.GraphBaseURL(), executor)

	return &app{
		store:       store,
		coordinator: coordinator,
		client:      client,
		calendars:   calendar.NewService(client, coordinator, store.PreferredTimezone()),
	}, nil
}

func main() {
	logging.Initialize()

	root := &cobra.Command{
		Use:           "meeting-notify",
		Short:         "Desktop meeting reminders from a Microsoft 365 calendar",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default ~/.config/meeting-notify)")

	root.AddCommand(
		newAuthCmd(),
		newStatusCmd(),
		newRefreshCmd(),
		newLogoutCmd(),
		newCalendarsCmd(),
		newEventsCmd(),
		newWatchCmd(),
	)

	if err := root.Execute(); err != nil {
		logging.MainLogger.Error("Command failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildNotifier assembles the reminder sinks for watch mode.
func buildNotifier(desktop bool) notify.Notifier {
	if !desktop {
		return notify.LogNotifier{}
	}
	return notify.MultiNotifier{notify.DesktopNotifier{}, notify.LogNotifier{}}
}
