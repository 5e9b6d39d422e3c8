package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"short local part keeps first char", "ab@x.com", "a*@x.com"},
		{"three char local part keeps both ends", "abc@x.com", "a*c@x.com"},
		{"long local part masks middle", "johndoe@example.com", "j*****e@example.com"},
		{"unknown sentinel passes through", "unknown", "unknown"},
		{"no at sign passes through", "not-an-email", "not-an-email"},
		{"empty local part passes through", "@x.com", "@x.com"},
		{"trailing at passes through", "abc@", "abc@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskEmail(tt.input))
		})
	}
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("password=hunter2"))
	assert.True(t, SanitizeQueryString("oobCode=abc123"))
	assert.True(t, SanitizeQueryString("csrf=tok"))
	assert.False(t, SanitizeQueryString("page=2&limit=10"))
	assert.False(t, SanitizeQueryString(""))
}
