// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// events.go - Calendar event retrieval and normalization.

package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gebl/meeting-notify/internal/auth"
	"github.com/gebl/meeting-notify/internal/graph"
	"github.com/gebl/meeting-notify/internal/logging"
)

// Event is a normalized calendar event with parsed instants in the
// preferred display zone.
type Event struct {
	ID               string
	Subject          string
	Organizer        string
	Location         string
	Start            time.Time
	End              time.Time
	IsOnlineMeeting  bool
	OnlineMeetingURL string
	BodyPreview      string
	ResponseStatus   string
	CalendarName     string

	// TimeUncertain marks events whose timestamps could not be parsed;
	// Start/End hold the current time as a visible placeholder.
	TimeUncertain bool
}

// Calendar is one entry from the user's calendar list.
type Calendar struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefaultCalendar"`
	Owner     string `json:"-"`
}

// graphDateTime is Graph's dateTimeTimeZone shape.
type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphEvent struct {
	ID        string        `json:"id"`
	Subject   string        `json:"subject"`
	Start     graphDateTime `json:"start"`
	End       graphDateTime `json:"end"`
	Organizer struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"organizer"`
	Location struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	IsOnlineMeeting bool `json:"isOnlineMeeting"`
	OnlineMeeting   *struct {
		JoinURL string `json:"joinUrl"`
	} `json:"onlineMeeting"`
	BodyPreview    string `json:"bodyPreview"`
	ResponseStatus struct {
		Response string `json:"response"`
	} `json:"responseStatus"`
}

type eventPage struct {
	Value    []graphEvent `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
}

type calendarPage struct {
	Value []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		IsDefault bool   `json:"isDefaultCalendar"`
		Owner     struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"owner"`
	} `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// Service fetches and normalizes calendar data.
type Service struct {
	client        *graph.Client
	authn         graph.Authenticator
	preferredZone string
	now           func() time.Time

	// calendarName caches the default calendar's display name; resolved
	// lazily on the first fetch.
	calendarName string
}

// NewService wires a calendar service. preferredZone may be empty for the
// system default.
func NewService(client *graph.Client, authn graph.Authenticator, preferredZone string) *Service {
	return &Service{
		client:        client,
		authn:         authn,
		preferredZone: preferredZone,
		now:           time.Now,
	}
}

// FetchWindow returns the events in [start, end], sorted by start time.
// Authentication runs up front so a fetch never starts with a token that
// is known stale.
func (s *Service) FetchWindow(ctx context.Context, start, end time.Time) ([]Event, error) {
	result := s.authn.Authenticate(ctx)
	switch {
	case result.IsCancelled():
		return nil, auth.ErrAuthCancelled
	case result.IsFailed():
		return nil, fmt.Errorf("authentication failed before calendar fetch: %w", result.Err())
	}

	s.resolveCalendarName(ctx)

	url := graph.BuildCalendarViewURL(s.client.BaseURL, start.UTC(), end.UTC())
	logging.CalendarLogger.Debug("Fetching calendar view", "start", start, "end", end)

	var events []Event
	for url != "" {
		var page eventPage
		if err := s.client.GetJSON(ctx, url, &page); err != nil {
			return nil, err
		}
		for _, raw := range page.Value {
			events = append(events, s.normalize(raw))
		}
		url = page.NextLink
	}

	// Pagination can repeat an id when the view shifts between page
	// requests; the merge keeps the last occurrence.
	events = MergeEvents(events)
	logging.CalendarLogger.Info("Calendar view fetched", "count", len(events))
	return events, nil
}

// resolveCalendarName caches the default calendar's display name. Failure
// is non-fatal: events simply carry an empty calendar name.
func (s *Service) resolveCalendarName(ctx context.Context) {
	if s.calendarName != "" {
		return
	}
	var cal struct {
		Name string `json:"name"`
	}
	if err := s.client.GetJSON(ctx, s.client.BaseURL+"/me/calendar", &cal); err != nil {
		logging.CalendarLogger.Debug("Could not resolve default calendar name", "error", err)
		return
	}
	s.calendarName = cal.Name
}

// ListCalendars returns the user's calendars.
func (s *Service) ListCalendars(ctx context.Context) ([]Calendar, error) {
	result := s.authn.Authenticate(ctx)
	switch {
	case result.IsCancelled():
		return nil, auth.ErrAuthCancelled
	case result.IsFailed():
		return nil, fmt.Errorf("authentication failed before calendar listing: %w", result.Err())
	}

	var calendars []Calendar
	url := s.client.BaseURL + "/me/calendars"
	for url != "" {
		var page calendarPage
		if err := s.client.GetJSON(ctx, url, &page); err != nil {
			return nil, err
		}
		for _, raw := range page.Value {
			calendars = append(calendars, Calendar{
				ID:        raw.ID,
				Name:      raw.Name,
				IsDefault: raw.IsDefault,
				Owner:     raw.Owner.Address,
			})
		}
		url = page.NextLink
	}
	return calendars, nil
}

// normalize converts a raw Graph event, substituting the current time for
// timestamps that defeat every parsing tier so the event stays visible.
func (s *Service) normalize(raw graphEvent) Event {
	ev := Event{
		ID:              raw.ID,
		Subject:         raw.Subject,
		Organizer:       raw.Organizer.EmailAddress.Name,
		Location:        raw.Location.DisplayName,
		IsOnlineMeeting: raw.IsOnlineMeeting,
		BodyPreview:     raw.BodyPreview,
		ResponseStatus:  raw.ResponseStatus.Response,
		CalendarName:    s.calendarName,
	}
	if ev.Organizer == "" {
		ev.Organizer = raw.Organizer.EmailAddress.Address
	}
	if raw.OnlineMeeting != nil {
		ev.OnlineMeetingURL = raw.OnlineMeeting.JoinURL
	}

	start, err := ParseEventTime(raw.Start.DateTime, raw.Start.TimeZone, s.preferredZone)
	if err != nil {
		if errors.Is(err, ErrDateTimeUnparseable) {
			logging.CalendarLogger.Warn("Event start time unparseable, substituting current time",
				"event_id", raw.ID, "raw", raw.Start.DateTime)
		}
		start = s.now()
		ev.TimeUncertain = true
	}
	end, err := ParseEventTime(raw.End.DateTime, raw.End.TimeZone, s.preferredZone)
	if err != nil {
		if errors.Is(err, ErrDateTimeUnparseable) {
			logging.CalendarLogger.Warn("Event end time unparseable, substituting current time",
				"event_id", raw.ID, "raw", raw.End.DateTime)
		}
		end = s.now()
		ev.TimeUncertain = true
	}
	ev.Start = start
	ev.End = end
	return ev
}

// MergeEvents combines event slices, later slices winning on ID
// collisions, and returns the union sorted by start time.
func MergeEvents(batches ...[]Event) []Event {
	byID := make(map[string]Event)
	for _, batch := range batches {
		for _, ev := range batch {
			byID[ev.ID] = ev
		}
	}
	merged := make([]Event, 0, len(byID))
	for _, ev := range byID {
		merged = append(merged, ev)
	}
	sortEvents(merged)
	return merged
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
}
