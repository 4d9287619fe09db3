// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyText(t *testing.T) {
	t.Run("strips html", func(t *testing.T) {
		got := BodyText("<p>Standup in <b>Room 4</b></p>")
		assert.Contains(t, got, "Standup in")
		assert.Contains(t, got, "Room 4")
		assert.NotContains(t, got, "<")
	})
	t.Run("plain text passes through", func(t *testing.T) {
		assert.Equal(t, "Bring the Q3 numbers", BodyText("  Bring the Q3 numbers \n"))
	})
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", BodyText("   "))
	})
}

func TestBodyMarkdown(t *testing.T) {
	got := BodyMarkdown("<p>Agenda: <strong>budget</strong></p>")
	assert.Contains(t, got, "**budget**")
	assert.Equal(t, "", BodyMarkdown(""))
}
