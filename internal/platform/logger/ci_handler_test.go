package logger_test

import (
	"log/slog"
	"testing"

	"github.com/phrazzld/ephemeraldb/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIHandler_AddsMetadata(t *testing.T) {
	t.Setenv("GITHUB_RUN_ID", "4242")
	t.Setenv("GITHUB_JOB", "integration")
	t.Setenv("CI_PIPELINE_ID", "")

	buf := &logger.TestLogBuffer{}
	l := slog.New(logger.NewCIHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.Info("dropped test database", "database", "test_abc")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, true, entry["ci"])
	assert.Equal(t, "4242", entry["ci_run_id"])
	assert.Equal(t, "integration", entry["ci_job"])
	assert.Equal(t, "test_abc", entry["database"])
}

func TestCIHandler_WithAttrsKeepsMetadata(t *testing.T) {
	t.Setenv("GITHUB_RUN_ID", "7")

	buf := &logger.TestLogBuffer{}
	l := slog.New(logger.NewCIHandler(buf, nil)).With("component", "reclaimer")

	l.Warn("teardown failed")

	logger.AssertLogField(t, buf, "component", "reclaimer")
	logger.AssertLogField(t, buf, "ci_run_id", "7")
}

func TestCIHandler_RespectsLevel(t *testing.T) {
	buf := &logger.TestLogBuffer{}
	l := slog.New(logger.NewCIHandler(buf, &slog.HandlerOptions{Level: slog.LevelError}))

	l.Info("ignored")
	assert.Empty(t, buf.String())

	l.Error("reported")
	logger.AssertLogContains(t, buf, "reported")
}
