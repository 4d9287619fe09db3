// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gebl/meeting-notify/internal/calendar"
)

func TestRenderBody(t *testing.T) {
	ev := calendar.Event{BodyPreview: "<p>Agenda: <strong>budget</strong></p>"}

	t.Run("plain text by default", func(t *testing.T) {
		got := renderBody(ev, false)
		assert.Contains(t, got, "budget")
		assert.NotContains(t, got, "**")
		assert.NotContains(t, got, "<")
	})

	t.Run("markdown when requested", func(t *testing.T) {
		got := renderBody(ev, true)
		assert.Contains(t, got, "**budget**")
	})

	t.Run("empty body", func(t *testing.T) {
		assert.Equal(t, "", renderBody(calendar.Event{}, true))
	})
}

func TestEventsCommandHasMarkdownFlag(t *testing.T) {
	cmd := newEventsCmd()
	assert.NotNil(t, cmd.Flags().Lookup("markdown"))
	assert.NotNil(t, cmd.Flags().Lookup("lookahead"))
}
