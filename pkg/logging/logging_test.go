package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelDebug.SlogLevel())
	assert.Equal(t, slog.LevelError, LevelError.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogLevel(999).SlogLevel())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" WARN ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"", LevelInfo, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)
	require.NotNil(t, Logger())

	Info("test-subsystem", "loaded %d files", 3)
	Debug("test-subsystem", "hidden")
	Error("test-subsystem", errors.New("boom"), "failed")

	out := buf.String()
	assert.Contains(t, out, "loaded 3 files")
	assert.Contains(t, out, "subsystem=test-subsystem")
	assert.Contains(t, out, "error=boom")
	assert.NotContains(t, out, "hidden")
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	InitJSON(LevelDebug, &buf)

	Warn("web", "slow request")
	assert.Contains(t, buf.String(), `"subsystem":"web"`)
	assert.Contains(t, buf.String(), `"msg":"slow request"`)
}
