package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"error", ERROR},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WARN, &buf)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "shown 3")
	assert.Contains(t, out, "[ERROR]")
	assert.Equal(t, 2, strings.Count(out, "\n"))

	l.SetLevel(DEBUG)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG]")
}

func TestLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(INFO, &buf)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal("giving up: %s", "bad input")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "[FATAL]")
	assert.Contains(t, buf.String(), "giving up: bad input")
}
