package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/ephemeraldb/internal/redact"
	"github.com/phrazzld/ephemeraldb/testdb"
)

// CLIError is an error with an exit code and optional suggestion.
type CLIError struct {
	Code       int
	Message    string
	Cause      error
	Suggestion string
}

func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for any error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cerr *CLIError
	if errors.As(err, &cerr) {
		return cerr.Code
	}

	switch {
	case errors.Is(err, testdb.ErrInvalidOptions):
		return ExitInvalidArgs
	case testdb.IsDatabaseNotExist(err):
		return ExitNotFound
	case errors.Is(err, testdb.ErrConnect),
		errors.Is(err, testdb.ErrCreate),
		errors.Is(err, testdb.ErrMigrate),
		errors.Is(err, testdb.ErrTeardown):
		return ExitDBError
	}
	return ExitGeneralError
}

// FormatErrorMessage returns the error, with credentials redacted, and its
// suggestion if it has one.
func FormatErrorMessage(err error) string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(redact.Error(err))

	var cerr *CLIError
	if errors.As(err, &cerr) && cerr.Suggestion != "" {
		b.WriteString("\n\nSuggestion: ")
		b.WriteString(cerr.Suggestion)
	}
	return b.String()
}

// ErrInvalidArgs creates an error for invalid arguments (exit code 2)
func ErrInvalidArgs(format string, args ...interface{}) error {
	return &CLIError{
		Code:    ExitInvalidArgs,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrInvalidArgsWithSuggestion creates an error for invalid arguments with a suggestion
func ErrInvalidArgsWithSuggestion(suggestion, format string, args ...interface{}) error {
	return &CLIError{
		Code:       ExitInvalidArgs,
		Message:    fmt.Sprintf(format, args...),
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific exit code
func WrapWithCode(code int, err error, format string, args ...interface{}) error {
	return &CLIError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// Common suggestions
const (
	SuggestSetDatabaseURL = "Set --database-url, EPHEMERALDB_DATABASE_URL, or DATABASE_URL."
	SuggestForceDrop      = "Only generated names are dropped by default. Pass --force to drop %s anyway."
)
