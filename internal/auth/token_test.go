// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWellFormed(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"three segments", "header.payload.signature", true},
		{"realistic token", "eyJ0eXAiOiJKV1QifQ.eyJhdWQiOiJncmFwaCJ9.c2ln", true},
		{"empty string", "", false},
		{"two segments", "header.payload", false},
		{"four segments", "a.b.c.d", false},
		{"empty middle segment", "a..c", false},
		{"empty first segment", ".b.c", false},
		{"empty last segment", "a.b.", false},
		{"only dots", "..", false},
		{"no dots", "opaque-token", false},
		{"whitespace segment", "a. .c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWellFormed(tt.token))
		})
	}
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, CheckFormat("a.b.c"))
	assert.ErrorIs(t, CheckFormat("a.b"), ErrMalformedToken)
	assert.ErrorIs(t, CheckFormat(""), ErrMalformedToken)
}

func TestStripBearerPrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no prefix", "a.b.c", "a.b.c"},
		{"standard prefix", "Bearer a.b.c", "a.b.c"},
		{"lowercase prefix", "bearer a.b.c", "a.b.c"},
		{"mixed case prefix", "BeArEr a.b.c", "a.b.c"},
		{"surrounding whitespace", "  Bearer a.b.c  ", "a.b.c"},
		{"prefix only", "Bearer ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripBearerPrefix(tt.input))
		})
	}
}

func TestMaskSensitiveData(t *testing.T) {
	assert.Equal(t, "***", maskSensitiveData("short"))
	assert.Equal(t, "<empty>", maskSensitiveData(""))
	masked := maskSensitiveData("eyJ0eXAiOiJKV1QifQ.payload.signature")
	assert.NotContains(t, masked, "payload")
	assert.Contains(t, masked, "***")
}
