// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels. Under CI the JSON handler is wrapped in a CIHandler that
// stamps every record with the CI provider's run metadata.
package logger
