package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/ephemeraldb/internal/ciutil"
)

// LoggerConfig holds the settings Setup needs.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error (case-insensitive).
	Level string
	// Format is json or text. Empty means json.
	Format string
	// Output defaults to os.Stderr so that command output on stdout stays clean.
	Output io.Writer
}

// ParseLevel converts a level name into a slog.Level. The second return value
// is false when the name is not recognised, in which case info is returned.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Setup initializes and configures the application's logging system based on
// the provided configuration. It creates a structured logger with the
// appropriate level, sets it as the default logger, and returns it.
func Setup(cfg LoggerConfig) (*slog.Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level, ok := ParseLevel(cfg.Level)
	if !ok {
		// Create a temporary logger to output the warning
		tmpLogger := slog.New(slog.NewTextHandler(out, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.Level,
			"default_level", "info")
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		if ciutil.IsCI() {
			handler = NewCIHandler(out, opts)
		} else {
			handler = slog.NewJSONHandler(out, opts)
		}
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q (want json or text)", cfg.Format)
	}

	logger := slog.New(handler)

	// This allows using the slog package functions directly (slog.Info, slog.Error, etc.)
	slog.SetDefault(logger)

	return logger, nil
}
