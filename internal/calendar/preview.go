// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// preview.go - Event body rendering for notifications and terminal output.

package calendar

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/jaytaylor/html2text"

	"github.com/gebl/meeting-notify/internal/logging"
)

// BodyText renders an event body preview as plain text. Graph previews
// occasionally arrive as HTML fragments; conversion failures fall back to
// the raw text trimmed.
func BodyText(preview string) string {
	trimmed := strings.TrimSpace(preview)
	if trimmed == "" {
		return ""
	}
	text, err := html2text.FromString(trimmed, html2text.Options{TextOnly: true})
	if err != nil {
		logging.CalendarLogger.Debug("Plain-text conversion failed, using raw preview", "error", err)
		return trimmed
	}
	return strings.TrimSpace(text)
}

// BodyMarkdown renders an event body preview as Markdown for rich
// notification sinks, falling back to plain text on conversion failure.
func BodyMarkdown(preview string) string {
	trimmed := strings.TrimSpace(preview)
	if trimmed == "" {
		return ""
	}
	converter := htmltomarkdown.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(trimmed)
	if err != nil {
		logging.CalendarLogger.Debug("Markdown conversion failed, using plain text", "error", err)
		return BodyText(trimmed)
	}
	return strings.TrimSpace(markdown)
}
