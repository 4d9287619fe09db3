// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package graph

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://graph.microsoft.com/v1.0"

// mustParseQuery asserts the built URL is well-formed and returns its
// query parameters.
func mustParseQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/v1.0/me/calendarView", u.Path)
	return u.Query()
}

func TestBuildCalendarViewURLPreciseTier(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC)

	q := mustParseQuery(t, BuildCalendarViewURL(testBase, start, end))

	assert.Equal(t, "2025-03-10T09:00:00", q.Get("startDateTime"))
	assert.Equal(t, "2025-03-10T21:00:00", q.Get("endDateTime"))
	assert.Equal(t, "start/dateTime ge '2025-03-10T09:00:00' and end/dateTime le '2025-03-10T21:00:00'", q.Get("$filter"))
	assert.Equal(t, "start/dateTime", q.Get("$orderby"))
	assert.Equal(t, "50", q.Get("$top"))
	assert.Contains(t, q.Get("$select"), "subject")
}

func TestBuildCalendarViewCleansInstantArtifacts(t *testing.T) {
	// Fractional seconds and trailing zone markers are stripped before
	// encoding; the precise tier still succeeds.
	q := mustParseQuery(t, buildCalendarViewFromStrings(testBase,
		"2025-03-10T09:00:00.1234567Z", "2025-03-10T21:00:00+02:00"))

	assert.Equal(t, "2025-03-10T09:00:00", q.Get("startDateTime"))
	assert.Equal(t, "2025-03-10T21:00:00", q.Get("endDateTime"))
	assert.NotEmpty(t, q.Get("$filter"))
}

func TestBuildCalendarViewFallsBackToDateOnly(t *testing.T) {
	// A truncated time portion defeats the precise tier but the date
	// prefix is intact, so tier 2 produces date-only bounds.
	q := mustParseQuery(t, buildCalendarViewFromStrings(testBase,
		"2025-03-10T09:00", "2025-03-10T21:00"))

	assert.Equal(t, "2025-03-10", q.Get("startDateTime"))
	assert.Equal(t, "2025-03-10", q.Get("endDateTime"))
	assert.Empty(t, q.Get("$filter"))
	assert.Equal(t, "50", q.Get("$top"))
}

func TestBuildCalendarViewFallsBackToMinimal(t *testing.T) {
	q := mustParseQuery(t, buildCalendarViewFromStrings(testBase, "garbage", "also garbage"))

	assert.Empty(t, q.Get("startDateTime"))
	assert.Empty(t, q.Get("$filter"))
	assert.Equal(t, "50", q.Get("$top"))
	assert.Equal(t, "start/dateTime", q.Get("$orderby"))
}

func TestBuildCalendarViewNeverReturnsEmpty(t *testing.T) {
	inputs := []string{
		"", "T", "9999", "2025-03-10T09:00:00", "not'a'date",
		"2025-13-99T99:99:99", "'2025-03-10T09:00:00'",
	}
	for _, start := range inputs {
		for _, end := range inputs {
			raw := buildCalendarViewFromStrings(testBase, start, end)
			require.NotEmpty(t, raw)
			_, err := url.Parse(raw)
			require.NoError(t, err, "inputs %q / %q", start, end)
		}
	}
}
