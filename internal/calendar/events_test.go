// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebl/meeting-notify/internal/auth"
	"github.com/gebl/meeting-notify/internal/graph"
)

type staticTokens struct{ token string }

func (s staticTokens) AccessToken() string { return s.token }

type fakeAuthn struct {
	calls  int
	result auth.AuthResult
}

func (f *fakeAuthn) Authenticate(context.Context) auth.AuthResult {
	f.calls++
	return f.result
}

func newTestService(t *testing.T, handler http.Handler, authn *fakeAuthn) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	executor := graph.NewExecutor(nil, staticTokens{"tok.en.1"}, authn)
	return NewService(graph.NewClient(srv.URL, executor), authn, "UTC")
}

func TestFetchWindowPaginatesAndSorts(t *testing.T) {
	var base string
	mux := http.NewServeMux()
	mux.HandleFunc("/me/calendar", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": "cal-1", "name": "Work"}`)
	})
	mux.HandleFunc("/me/calendarView", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok.en.1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("$top"))
		fmt.Fprintf(w, `{
			"value": [{
				"id": "ev-late",
				"subject": "Retro",
				"start": {"dateTime": "2025-03-10T15:00:00.0000000", "timeZone": "UTC"},
				"end":   {"dateTime": "2025-03-10T16:00:00.0000000", "timeZone": "UTC"}
			}, {
				"id": "ev-dup",
				"subject": "Planning (stale)",
				"start": {"dateTime": "2025-03-10T12:00:00.0000000", "timeZone": "UTC"},
				"end":   {"dateTime": "2025-03-10T13:00:00.0000000", "timeZone": "UTC"}
			}],
			"@odata.nextLink": "%s/page2"
		}`, base)
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"value": [{
				"id": "ev-early",
				"subject": "Standup",
				"start": {"dateTime": "2025-03-10T09:00:00.0000000", "timeZone": "UTC"},
				"end":   {"dateTime": "2025-03-10T09:15:00.0000000", "timeZone": "UTC"},
				"isOnlineMeeting": true,
				"onlineMeeting": {"joinUrl": "https://teams.example/join/1"},
				"organizer": {"emailAddress": {"name": "Dana", "address": "dana@example.com"}},
				"responseStatus": {"response": "accepted"}
			}, {
				"id": "ev-dup",
				"subject": "Planning",
				"start": {"dateTime": "2025-03-10T12:00:00.0000000", "timeZone": "UTC"},
				"end":   {"dateTime": "2025-03-10T13:00:00.0000000", "timeZone": "UTC"}
			}]
		}`)
	})

	authn := &fakeAuthn{result: auth.Authenticated("tok.en.1")}
	svc := newTestService(t, mux, authn)
	base = svc.client.BaseURL

	window := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	events, err := svc.FetchWindow(context.Background(), window, window.Add(24*time.Hour))
	require.NoError(t, err)

	require.Len(t, events, 3)
	// Sorted by start time across pages.
	assert.Equal(t, "ev-early", events[0].ID)
	assert.Equal(t, "Standup", events[0].Subject)
	assert.Equal(t, "Dana", events[0].Organizer)
	assert.Equal(t, "https://teams.example/join/1", events[0].OnlineMeetingURL)
	assert.Equal(t, "accepted", events[0].ResponseStatus)
	assert.Equal(t, "ev-late", events[2].ID)
	assert.False(t, events[0].TimeUncertain)

	// An id repeated across pages collapses to one event, last page wins.
	assert.Equal(t, "ev-dup", events[1].ID)
	assert.Equal(t, "Planning", events[1].Subject)

	// Events carry the default calendar's display name.
	assert.Equal(t, "Work", events[0].CalendarName)

	// Pre-flight auth ran once for the whole window fetch.
	assert.Equal(t, 1, authn.calls)
}

func TestFetchWindowToleratesMissingCalendarName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/calendarView", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"value": []}`)
	})

	authn := &fakeAuthn{result: auth.Authenticated("tok.en.1")}
	svc := newTestService(t, mux, authn)

	// /me/calendar 404s; the fetch still succeeds with unnamed events.
	_, err := svc.FetchWindow(context.Background(), time.Now(), time.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.Empty(t, svc.calendarName)
}

func TestFetchWindowCancelledAuth(t *testing.T) {
	authn := &fakeAuthn{result: auth.Cancelled("user declined")}
	svc := newTestService(t, http.NewServeMux(), authn)

	_, err := svc.FetchWindow(context.Background(), time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, auth.ErrAuthCancelled)
}

func TestFetchWindowFailedAuth(t *testing.T) {
	authn := &fakeAuthn{result: auth.Failed(auth.ErrAuthInProgress)}
	svc := newTestService(t, http.NewServeMux(), authn)

	_, err := svc.FetchWindow(context.Background(), time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrAuthInProgress)
}

func TestNormalizeSubstitutesCurrentTimeForUnparseable(t *testing.T) {
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := NewService(nil, nil, "UTC")
	svc.now = func() time.Time { return fixed }

	ev := svc.normalize(graphEvent{
		ID:      "ev-1",
		Subject: "Mystery meeting",
		Start:   graphDateTime{DateTime: "whenever", TimeZone: "???"},
		End:     graphDateTime{DateTime: "2025-03-10T13:00:00", TimeZone: "UTC"},
	})

	assert.True(t, ev.TimeUncertain)
	assert.True(t, fixed.Equal(ev.Start), "placeholder keeps the event visible")
	assert.True(t, time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC).Equal(ev.End))
}

func TestNormalizeOrganizerFallsBackToAddress(t *testing.T) {
	svc := NewService(nil, nil, "UTC")
	raw := graphEvent{
		ID:    "ev-1",
		Start: graphDateTime{DateTime: "2025-03-10T09:00:00", TimeZone: "UTC"},
		End:   graphDateTime{DateTime: "2025-03-10T10:00:00", TimeZone: "UTC"},
	}
	raw.Organizer.EmailAddress.Address = "pat@example.com"

	ev := svc.normalize(raw)
	assert.Equal(t, "pat@example.com", ev.Organizer)
}

func TestMergeEvents(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	older := []Event{
		{ID: "a", Subject: "Old subject", Start: t0.Add(2 * time.Hour)},
		{ID: "b", Start: t0},
	}
	newer := []Event{
		{ID: "a", Subject: "New subject", Start: t0.Add(2 * time.Hour)},
		{ID: "c", Start: t0.Add(time.Hour)},
	}

	merged := MergeEvents(older, newer)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})
	// Later batches win on ID collisions.
	assert.Equal(t, "New subject", merged[2].Subject)
}
