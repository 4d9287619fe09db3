// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventTimeWindowsZoneToPreferredZone(t *testing.T) {
	// 17:00 US Pacific on 2025-03-10 (daylight time) is 20:00 US Eastern.
	got, err := ParseEventTime("2025-03-10T17:00:00.0000000", "Pacific Standard Time", "America/New_York")
	require.NoError(t, err)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	want := time.Date(2025, 3, 10, 20, 0, 0, 0, ny)
	assert.True(t, want.Equal(got), "got %v, want %v", got, want)
	assert.Equal(t, "America/New_York", got.Location().String())
}

func TestParseEventTimeUTC(t *testing.T) {
	got, err := ParseEventTime("2025-01-02T12:30:45.1234567", "UTC", "UTC")
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 2, 12, 30, 45, 0, time.UTC).Equal(got))
}

func TestParseEventTimeIANAZone(t *testing.T) {
	got, err := ParseEventTime("2025-07-04T09:00:00", "America/Chicago", "UTC")
	require.NoError(t, err)
	// 09:00 CDT is 14:00 UTC.
	assert.True(t, time.Date(2025, 7, 4, 14, 0, 0, 0, time.UTC).Equal(got))
}

func TestParseEventTimeDateOnlyFallback(t *testing.T) {
	// Unknown zone defeats the zoned tiers; the date prefix still parses
	// at local midnight.
	got, err := ParseEventTime("2025-06-01Tjunk", "Invalid/Zone", "")
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.June, got.Month())
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, 0, got.Hour())
}

func TestParseEventTimeUnparseable(t *testing.T) {
	_, err := ParseEventTime("soon", "??", "UTC")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDateTimeUnparseable)
}

func TestParseZonedLiteral(t *testing.T) {
	got, err := parseZonedLiteral("2025-01-02T12:00:00", "UTC")
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC).Equal(got))
}

func TestResolveZone(t *testing.T) {
	t.Run("windows display name", func(t *testing.T) {
		loc, err := resolveZone("Pacific Standard Time")
		require.NoError(t, err)
		assert.Equal(t, "America/Los_Angeles", loc.String())
	})
	t.Run("iana id passes through", func(t *testing.T) {
		loc, err := resolveZone("Europe/Berlin")
		require.NoError(t, err)
		assert.Equal(t, "Europe/Berlin", loc.String())
	})
	t.Run("utc", func(t *testing.T) {
		loc, err := resolveZone("UTC")
		require.NoError(t, err)
		assert.Equal(t, time.UTC, loc)
	})
	t.Run("empty fails", func(t *testing.T) {
		_, err := resolveZone("")
		assert.Error(t, err)
	})
	t.Run("unknown fails", func(t *testing.T) {
		_, err := resolveZone("Middle Earth Standard Time")
		assert.Error(t, err)
	})
}

func TestResolveDisplayZoneFallsBackToLocal(t *testing.T) {
	assert.Equal(t, time.Local, resolveDisplayZone(""))
	assert.Equal(t, time.Local, resolveDisplayZone("Not/A/Zone"))
}
