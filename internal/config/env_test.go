// SPDX-License-Identifier: MIT

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	t.Setenv("XBENCH_TEST_STR", "value")
	t.Setenv("XBENCH_TEST_EMPTY", "")

	assert.Equal(t, "value", ParseString("XBENCH_TEST_STR", "def"))
	assert.Equal(t, "def", ParseString("XBENCH_TEST_EMPTY", "def"))
	assert.Equal(t, "def", ParseString("XBENCH_TEST_UNSET", "def"))
}

func TestParseString_MasksSensitiveValues(t *testing.T) {
	logs := captureLogs(t)
	t.Setenv("XBENCH_HUB_TOKEN", "hf_secret")

	assert.Equal(t, "hf_secret", ParseString("XBENCH_HUB_TOKEN", ""))
	assert.NotContains(t, logs.String(), "hf_secret")
	assert.Contains(t, logs.String(), `"sensitive":true`)
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"42", 42},
		{" 7 ", 7},
		{"-3", -3},
		{"seven", 10},
		{"", 10},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("XBENCH_TEST_INT", tt.value)
			assert.Equal(t, tt.want, ParseInt("XBENCH_TEST_INT", 10))
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"YES", false, true},
		{"1", false, true},
		{"false", true, false},
		{"no", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("XBENCH_TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, ParseBool("XBENCH_TEST_BOOL", tt.def))
		})
	}
}
