// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// query.go - Calendar-view query construction.
//
// The Graph calendar-view filter syntax is sensitive to exact
// timezone/fractional-second formatting, so the builder degrades through
// three tiers instead of failing the whole fetch cycle:
//
//	tier 1: precise $filter on cleaned ISO instants
//	tier 2: date-only bounds
//	tier 3: no filter at all, just $select/$orderby/$top=50
//
// Each tier is a plain function returning a value or an error; the first
// success wins.

package graph

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/gebl/meeting-notify/internal/logging"
)

const (
	graphTimeFormat = "2006-01-02T15:04:05"
	graphDateFormat = "2006-01-02"

	calendarViewSelect  = "id,subject,organizer,location,start,end,isOnlineMeeting,onlineMeeting,bodyPreview,responseStatus"
	calendarViewOrderBy = "start/dateTime"
	calendarViewTop     = "50"
)

var (
	fractionRe = regexp.MustCompile(`\.\d+`)
	// Offset/zone artifacts sometimes trail the instant: Z, +01:00,
	// [Pacific Standard Time], stray quotes.
	zoneArtifactRe = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2}|\[[^\]]*\]|')+$`)

	preciseInstantRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)
	dateOnlyRe       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// BuildCalendarViewURL returns the calendar-view URL for the window
// [start, end]. It never fails: if the precise tier cannot produce a
// valid URL it degrades to date-only bounds, and finally to a bare query,
// sacrificing precision for availability.
func BuildCalendarViewURL(baseURL string, start, end time.Time) string {
	return buildCalendarViewFromStrings(baseURL,
		start.Format(graphTimeFormat), end.Format(graphTimeFormat))
}

func buildCalendarViewFromStrings(baseURL, startRaw, endRaw string) string {
	if u, err := buildPreciseQuery(baseURL, startRaw, endRaw); err == nil {
		return u
	} else {
		logging.GraphLogger.Debug("Precise calendar query failed, trying date-only bounds", "error", err)
	}
	if u, err := buildDateOnlyQuery(baseURL, startRaw, endRaw); err == nil {
		return u
	} else {
		logging.GraphLogger.Debug("Date-only calendar query failed, using minimal query", "error", err)
	}
	return buildMinimalQuery(baseURL)
}

// buildPreciseQuery encodes a $filter on cleaned ISO instants plus the
// calendar-view window parameters.
func buildPreciseQuery(baseURL, startRaw, endRaw string) (string, error) {
	start, err := cleanInstant(startRaw, preciseInstantRe)
	if err != nil {
		return "", err
	}
	end, err := cleanInstant(endRaw, preciseInstantRe)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("startDateTime", start)
	params.Set("endDateTime", end)
	params.Set("$filter", fmt.Sprintf("start/dateTime ge '%s' and end/dateTime le '%s'", start, end))
	params.Set("$select", calendarViewSelect)
	params.Set("$orderby", calendarViewOrderBy)
	params.Set("$top", calendarViewTop)

	return joinQuery(baseURL, params)
}

// buildDateOnlyQuery rebuilds with date-only bounds, dropping time of day.
func buildDateOnlyQuery(baseURL, startRaw, endRaw string) (string, error) {
	start, err := cleanInstant(datePortion(startRaw), dateOnlyRe)
	if err != nil {
		return "", err
	}
	end, err := cleanInstant(datePortion(endRaw), dateOnlyRe)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("startDateTime", start)
	params.Set("endDateTime", end)
	params.Set("$select", calendarViewSelect)
	params.Set("$orderby", calendarViewOrderBy)
	params.Set("$top", calendarViewTop)

	return joinQuery(baseURL, params)
}

// buildMinimalQuery drops the window filter entirely; the server's
// defaults plus $top bound the result.
func buildMinimalQuery(baseURL string) string {
	params := url.Values{}
	params.Set("$select", calendarViewSelect)
	params.Set("$orderby", calendarViewOrderBy)
	params.Set("$top", calendarViewTop)
	return baseURL + "/me/calendarView?" + params.Encode()
}

// cleanInstant strips fractional seconds and trailing zone artifacts, then
// rejects anything that still does not match shape.
func cleanInstant(raw string, shape *regexp.Regexp) (string, error) {
	cleaned := fractionRe.ReplaceAllString(raw, "")
	cleaned = zoneArtifactRe.ReplaceAllString(cleaned, "")
	if !shape.MatchString(cleaned) {
		return "", fmt.Errorf("instant %q not encodable after cleaning", raw)
	}
	return cleaned, nil
}

func datePortion(raw string) string {
	if len(raw) > len(graphDateFormat) {
		return raw[:len(graphDateFormat)]
	}
	return raw
}

func joinQuery(baseURL string, params url.Values) (string, error) {
	full := baseURL + "/me/calendarView?" + params.Encode()
	if _, err := url.Parse(full); err != nil {
		return "", fmt.Errorf("constructed URL does not parse: %w", err)
	}
	return full, nil
}
