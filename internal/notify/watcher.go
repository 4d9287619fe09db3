// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// watcher.go - Periodic calendar polling and reminder dispatch.

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gebl/meeting-notify/internal/auth"
	"github.com/gebl/meeting-notify/internal/calendar"
	"github.com/gebl/meeting-notify/internal/logging"
)

// EventSource is the slice of the calendar service the watcher needs.
type EventSource interface {
	FetchWindow(ctx context.Context, start, end time.Time) ([]calendar.Event, error)
}

// Watcher polls the calendar and fires reminders at configured offsets
// before each event starts.
type Watcher struct {
	source    EventSource
	notifier  Notifier
	interval  time.Duration
	lookahead time.Duration
	offsets   []time.Duration

	// now is a clock seam for tests.
	now func() time.Time

	events []calendar.Event
	fired  map[string]struct{}
}

// NewWatcher builds a watcher. offsets are durations before event start
// at which to remind, e.g. 15m, 5m, 0.
func NewWatcher(source EventSource, notifier Notifier, interval, lookahead time.Duration, offsets []time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Minute
	}
	if lookahead <= 0 {
		lookahead = 12 * time.Hour
	}
	return &Watcher{
		source:    source,
		notifier:  notifier,
		interval:  interval,
		lookahead: lookahead,
		offsets:   offsets,
		now:       time.Now,
		fired:     make(map[string]struct{}),
	}
}

// Run polls until ctx is cancelled. Transient fetch failures and
// in-progress authentication keep the previous event set and retry on the
// next tick.
func (w *Watcher) Run(ctx context.Context) error {
	logging.NotifyLogger.Info("Watcher started",
		"interval", w.interval, "lookahead", w.lookahead, "offsets", w.offsets)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			logging.NotifyLogger.Info("Watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	if err := w.refresh(ctx); err != nil {
		switch {
		case errors.Is(err, auth.ErrAuthInProgress):
			logging.NotifyLogger.Debug("Authentication in progress, keeping previous events")
		case errors.Is(err, auth.ErrAuthCancelled):
			logging.NotifyLogger.Warn("Authentication cancelled, keeping previous events")
		default:
			logging.NotifyLogger.Warn("Calendar refresh failed, keeping previous events", "error", err)
		}
	}
	w.dispatchDue(ctx)
}

func (w *Watcher) refresh(ctx context.Context) error {
	now := w.now()
	events, err := w.source.FetchWindow(ctx, now, now.Add(w.lookahead))
	if err != nil {
		return err
	}
	w.events = events
	w.pruneFired(now)
	return nil
}

// dispatchDue fires each (event, offset) pair at most once, when the
// current time has passed start-offset but the event has not started
// long ago.
func (w *Watcher) dispatchDue(ctx context.Context) {
	now := w.now()
	for _, ev := range w.events {
		if ev.TimeUncertain {
			continue
		}
		for _, offset := range w.offsets {
			due := ev.Start.Add(-offset)
			if now.Before(due) || now.After(ev.Start.Add(w.interval)) {
				continue
			}
			key := reminderKey(ev.ID, offset)
			if _, done := w.fired[key]; done {
				continue
			}
			w.fired[key] = struct{}{}
			if err := w.notifier.Notify(ctx, Reminder{Event: ev, Offset: offset}); err != nil {
				logging.NotifyLogger.Warn("Reminder delivery failed",
					"event_id", ev.ID, "offset", offset, "error", err)
			}
		}
	}
}

// pruneFired drops dedup entries for events that are no longer in the
// window so the map does not grow without bound.
func (w *Watcher) pruneFired(now time.Time) {
	live := make(map[string]struct{}, len(w.fired))
	for _, ev := range w.events {
		for _, offset := range w.offsets {
			key := reminderKey(ev.ID, offset)
			if _, ok := w.fired[key]; ok {
				live[key] = struct{}{}
			}
		}
	}
	w.fired = live
}

func reminderKey(id string, offset time.Duration) string {
	return fmt.Sprintf("%s|%s", id, offset)
}
