// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// notifier.go - Reminder delivery sinks.

package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/gebl/meeting-notify/internal/calendar"
	"github.com/gebl/meeting-notify/internal/logging"
)

// Reminder is one due notification for an event at a particular offset.
type Reminder struct {
	Event  calendar.Event
	Offset time.Duration
}

// Notifier delivers a reminder to some sink.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier writes reminders to the structured log. Used as the
// fallback sink and in tests.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, r Reminder) error {
	logging.NotifyLogger.Info("Meeting reminder",
		"subject", r.Event.Subject,
		"start", r.Event.Start.Format(time.Kitchen),
		"offset", r.Offset,
		"organizer", r.Event.Organizer,
		"location", r.Event.Location)
	return nil
}

// DesktopNotifier shells out to notify-send for Linux desktop popups.
type DesktopNotifier struct {
	// Command overrides the binary, for tests. Empty means notify-send.
	Command string
}

func (d DesktopNotifier) Notify(ctx context.Context, r Reminder) error {
	command := d.Command
	if command == "" {
		command = "notify-send"
	}

	urgency := "normal"
	if r.Offset <= 0 {
		urgency = "critical"
	}

	cmd := exec.CommandContext(ctx, command,
		"--app-name=meeting-notify",
		"--urgency="+urgency,
		summaryLine(r),
		bodyLines(r))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func summaryLine(r Reminder) string {
	switch {
	case r.Offset <= 0:
		return fmt.Sprintf("Now: %s", r.Event.Subject)
	case r.Offset < time.Hour:
		return fmt.Sprintf("In %d min: %s", int(r.Offset.Minutes()), r.Event.Subject)
	default:
		return fmt.Sprintf("At %s: %s", r.Event.Start.Format(time.Kitchen), r.Event.Subject)
	}
}

func bodyLines(r Reminder) string {
	var lines []string
	lines = append(lines, r.Event.Start.Format("Mon Jan 2 15:04"))
	if r.Event.Organizer != "" {
		lines = append(lines, "Organizer: "+r.Event.Organizer)
	}
	if r.Event.Location != "" {
		lines = append(lines, "Location: "+r.Event.Location)
	}
	if r.Event.IsOnlineMeeting && r.Event.OnlineMeetingURL != "" {
		lines = append(lines, r.Event.OnlineMeetingURL)
	}
	if preview := calendar.BodyText(r.Event.BodyPreview); preview != "" {
		lines = append(lines, "", preview)
	}
	return strings.Join(lines, "\n")
}

// MultiNotifier fans a reminder out to several sinks. Delivery failures
// are logged per sink; one broken sink does not block the others.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, r Reminder) error {
	for _, n := range m {
		if err := n.Notify(ctx, r); err != nil {
			logging.NotifyLogger.Warn("Notifier failed", "error", err)
		}
	}
	return nil
}
