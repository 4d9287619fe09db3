// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// datetime.go - Resilient event date/time parsing.
//
// Graph has been observed returning inconsistent combinations of
// fractional seconds and named/UTC timezones, so parsing is a three-tier
// cascade, each tier attempted only when the prior fails:
//
//	tier 1: strip fractional digits, parse zone-naive, attach the named
//	        zone (UTC when the zone string is exactly "UTC"), convert to
//	        the preferred display zone
//	tier 2: concatenate the cleaned string with a zone suffix and parse
//	        as a single zoned literal
//	tier 3: parse only the date portion, anchored at midnight in the
//	        system default zone
//
// When everything fails the caller substitutes the current time as a
// visible placeholder rather than dropping the event.

package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gebl/meeting-notify/internal/logging"
)

// ErrDateTimeUnparseable means all parsing tiers failed for an event
// timestamp. Handled inside event ingestion; never guesses silently.
var ErrDateTimeUnparseable = errors.New("date/time not parseable")

const (
	naiveTimeLayout = "2006-01-02T15:04:05"
	dateOnlyLayout  = "2006-01-02"
)

var fractionalSecondsRe = regexp.MustCompile(`\.\d+`)

// ParseEventTime converts a raw Graph dateTime plus its timeZone string
// into an instant in the caller's preferred display zone. preferredZone
// falls back to the system default when absent or invalid.
func ParseEventTime(raw, rawZone, preferredZone string) (time.Time, error) {
	display := resolveDisplayZone(preferredZone)

	if t, err := parseNaiveWithZone(raw, rawZone); err == nil {
		return t.In(display), nil
	} else {
		logging.CalendarLogger.Debug("Zone-naive parse failed, trying zoned literal",
			"raw", raw, "zone", rawZone, "error", err)
	}

	if t, err := parseZonedLiteral(raw, rawZone); err == nil {
		return t.In(display), nil
	} else {
		logging.CalendarLogger.Debug("Zoned-literal parse failed, trying date only",
			"raw", raw, "error", err)
	}

	if t, err := parseDateOnly(raw); err == nil {
		return t.In(display), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q (zone %q)", ErrDateTimeUnparseable, raw, rawZone)
}

// parseNaiveWithZone is tier 1: cleaned local date-time plus named zone.
func parseNaiveWithZone(raw, rawZone string) (time.Time, error) {
	loc, err := resolveZone(rawZone)
	if err != nil {
		return time.Time{}, err
	}
	cleaned := stripFractionalSeconds(raw)
	return time.ParseInLocation(naiveTimeLayout, cleaned, loc)
}

// parseZonedLiteral is tier 2: the cleaned string concatenated with a
// zone suffix and parsed as one literal. UTC gets "Z"; named zones get
// their current numeric offset.
func parseZonedLiteral(raw, rawZone string) (time.Time, error) {
	cleaned := stripFractionalSeconds(raw)
	if strings.TrimSpace(rawZone) == "UTC" {
		return time.Parse(time.RFC3339, cleaned+"Z")
	}
	loc, err := resolveZone(rawZone)
	if err != nil {
		return time.Time{}, err
	}
	suffix := time.Now().In(loc).Format("-07:00")
	return time.Parse(time.RFC3339, cleaned+suffix)
}

// parseDateOnly is tier 3: the date portion before "T" anchored at
// midnight in the system default zone.
func parseDateOnly(raw string) (time.Time, error) {
	datePart, _, _ := strings.Cut(raw, "T")
	return time.ParseInLocation(dateOnlyLayout, strings.TrimSpace(datePart), time.Local)
}

func stripFractionalSeconds(raw string) string {
	return strings.TrimSpace(fractionalSecondsRe.ReplaceAllString(raw, ""))
}

// resolveZone maps a Graph timeZone string to a location: "UTC" exactly,
// then an IANA id, then the Windows display-name table.
func resolveZone(rawZone string) (*time.Location, error) {
	zone := strings.TrimSpace(rawZone)
	if zone == "" {
		return nil, fmt.Errorf("empty timezone")
	}
	if zone == "UTC" {
		return time.UTC, nil
	}
	if loc, err := time.LoadLocation(zone); err == nil {
		return loc, nil
	}
	if iana, ok := windowsZones[zone]; ok {
		return time.LoadLocation(iana)
	}
	return nil, fmt.Errorf("unknown timezone %q", zone)
}

// resolveDisplayZone picks the preferred display zone, falling back to
// the system default when the id is absent or invalid.
func resolveDisplayZone(preferredZone string) *time.Location {
	zone := strings.TrimSpace(preferredZone)
	if zone == "" {
		return time.Local
	}
	if loc, err := resolveZone(zone); err == nil {
		return loc
	}
	logging.CalendarLogger.Warn("Invalid preferred timezone, using system default", "zone", zone)
	return time.Local
}
