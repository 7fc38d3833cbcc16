package logger_test

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/ephemeraldb/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restoreDefault puts back the process-wide default logger after Setup replaced it.
func restoreDefault(t *testing.T) {
	t.Helper()
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })
}

// notCI makes Setup pick the plain JSON handler.
func notCI(t *testing.T) {
	t.Helper()
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS", "CIRCLECI"} {
		t.Setenv(v, "")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		level slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{" error ", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		level, ok := logger.ParseLevel(tt.input)
		assert.Equal(t, tt.level, level, "level for %q", tt.input)
		assert.Equal(t, tt.ok, ok, "ok for %q", tt.input)
	}
}

func TestSetup_JSON(t *testing.T) {
	restoreDefault(t)
	notCI(t)

	buf := &logger.TestLogBuffer{}
	l, err := logger.Setup(logger.LoggerConfig{Level: "warn", Output: buf})
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Info("should be filtered")
	l.Warn("kept", "database", "test_abc")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "test_abc", entries[0]["database"])

	assert.Same(t, l, slog.Default(), "Setup should install the logger as default")
}

func TestSetup_Text(t *testing.T) {
	restoreDefault(t)

	buf := &logger.TestLogBuffer{}
	l, err := logger.Setup(logger.LoggerConfig{Level: "debug", Format: "text", Output: buf})
	require.NoError(t, err)

	l.Debug("hello", "k", "v")
	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "k=v")
}

func TestSetup_InvalidFormat(t *testing.T) {
	restoreDefault(t)

	_, err := logger.Setup(logger.LoggerConfig{Format: "xml", Output: &logger.TestLogBuffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestSetup_InvalidLevelFallsBackToInfo(t *testing.T) {
	restoreDefault(t)
	notCI(t)

	buf := &logger.TestLogBuffer{}
	l, err := logger.Setup(logger.LoggerConfig{Level: "chatty", Output: buf})
	require.NoError(t, err)

	assert.True(t, strings.Contains(buf.String(), "invalid log level configured"))

	buf.Reset()
	l.Debug("dropped")
	l.Info("kept")
	logger.AssertLogContains(t, buf, "kept")
	assert.NotContains(t, buf.String(), "dropped")
}
