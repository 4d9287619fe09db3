// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// commands.go - Subcommand implementations.

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gebl/meeting-notify/internal/auth"
	"github.com/gebl/meeting-notify/internal/calendar"
	"github.com/gebl/meeting-notify/internal/logging"
	"github.com/gebl/meeting-notify/internal/notify"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Sign in and store tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			result := app.coordinator.Authenticate(cmd.Context())
			switch {
			case result.IsAuthenticated():
				fmt.Println("Authenticated. Tokens stored.")
				return nil
			case result.IsCancelled():
				fmt.Println("Sign-in cancelled.")
				return nil
			default:
				return result.Err()
			}
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the stored token against the Graph API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}

			token := app.store.AccessToken()
			if token == "" {
				fmt.Println("No stored token. Run 'meeting-notify auth'.")
				return nil
			}
			if !auth.IsWellFormed(token) {
				fmt.Println("Stored token is malformed. Run 'meeting-notify auth'.")
				return nil
			}

			validator := auth.NewServerValidator(app.store.GraphBaseURL(), nil)
			switch err := validator.Validate(cmd.Context(), token); {
			case err == nil:
				fmt.Println("Token is valid.")
			case errors.Is(err, auth.ErrAuthRejected):
				fmt.Println("Token was rejected by the server. Run 'meeting-notify auth'.")
			case auth.IsNetworkError(err):
				return fmt.Errorf("could not reach the Graph API: %w", err)
			default:
				return err
			}
			return nil
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			if err := app.coordinator.Refresh(cmd.Context()); err != nil {
				if errors.Is(err, auth.ErrRefreshRejected) {
					return fmt.Errorf("refresh token was rejected, run 'meeting-notify auth': %w", err)
				}
				return err
			}
			fmt.Println("Token refreshed.")
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard stored tokens",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			if err := app.store.ClearTokens(); err != nil {
				return err
			}
			fmt.Println("Tokens cleared.")
			return nil
		},
	}
}

func newCalendarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendars",
		Short: "List the account's calendars",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			calendars, err := app.calendars.ListCalendars(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range calendars {
				marker := " "
				if c.IsDefault {
					marker = "*"
				}
				fmt.Printf("%s %s (%s)\n", marker, c.Name, c.ID)
			}
			return nil
		},
	}
}

func newEventsCmd() *cobra.Command {
	var lookahead time.Duration
	var markdown bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print upcoming events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			if lookahead == 0 {
				lookahead = app.store.Lookahead()
			}

			now := time.Now()
			events, err := app.calendars.FetchWindow(cmd.Context(), now, now.Add(lookahead))
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No upcoming events.")
				return nil
			}
			for _, ev := range events {
				printEvent(ev, markdown)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&lookahead, "lookahead", 0, "how far ahead to look (default from config)")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "render event bodies as Markdown")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var noDesktop bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the calendar and fire reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}

			offsets := make([]time.Duration, 0, len(app.store.ReminderMinutes()))
			for _, m := range app.store.ReminderMinutes() {
				offsets = append(offsets, time.Duration(m)*time.Minute)
			}

			watcher := notify.NewWatcher(
				app.calendars,
				buildNotifier(!noDesktop),
				app.store.PollInterval(),
				app.store.Lookahead(),
				offsets,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app.store.OnChange(func() {
				logging.MainLogger.Info("Configuration changed; interval and offset changes apply on restart")
			})

			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noDesktop, "no-desktop", false, "log reminders instead of desktop notifications")
	return cmd
}

func printEvent(ev calendar.Event, markdown bool) {
	fmt.Printf("%s  %s", ev.Start.Format("Mon Jan 2 15:04"), ev.Subject)
	if ev.TimeUncertain {
		fmt.Print("  (time uncertain)")
	}
	fmt.Println()
	if ev.CalendarName != "" {
		fmt.Printf("    calendar:  %s\n", ev.CalendarName)
	}
	if ev.Organizer != "" {
		fmt.Printf("    organizer: %s\n", ev.Organizer)
	}
	if ev.Location != "" {
		fmt.Printf("    location:  %s\n", ev.Location)
	}
	if ev.IsOnlineMeeting && ev.OnlineMeetingURL != "" {
		fmt.Printf("    join:      %s\n", ev.OnlineMeetingURL)
	}
	if preview := renderBody(ev, markdown); preview != "" {
		fmt.Printf("    %s\n", preview)
	}
}

// renderBody picks the body rendering for the detail view: Markdown for
// rich terminals, plain text otherwise.
func renderBody(ev calendar.Event, markdown bool) string {
	if markdown {
		return calendar.BodyMarkdown(ev.BodyPreview)
	}
	return calendar.BodyText(ev.BodyPreview)
}
