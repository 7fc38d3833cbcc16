package migrate

import (
	"fmt"
	"log/slog"
	"strings"
)

// slogGooseLogger adapts the goose logger interface to use slog
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements the goose.Logger Printf method by forwarding messages to slog.Debug
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages to slog.Error.
// It does not exit; goose also returns the error to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}
