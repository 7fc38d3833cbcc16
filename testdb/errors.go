package testdb

import (
	"errors"
	"fmt"

	"github.com/phrazzld/ephemeraldb/internal/platform/postgres"
)

// Sentinel errors. Errors returned by New, Pool, SQLDB, Reclaim, and Wait
// wrap one of these; use errors.Is to test for them.
var (
	// ErrInvalidOptions is returned when Options fail validation. Nothing has
	// been created on the server when this is returned.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrConnect is returned when a connection to the server cannot be
	// established, including authentication failures.
	ErrConnect = errors.New("connection failed")

	// ErrCreate is returned when CREATE DATABASE fails.
	ErrCreate = errors.New("create database failed")

	// ErrDatabaseExists indicates that the generated name was already taken.
	// With 128 random bits this means something other than chance went wrong.
	ErrDatabaseExists = fmt.Errorf("%w: database already exists", ErrCreate)

	// ErrPermission is returned alongside another sentinel when the role lacks
	// a privilege, typically CREATEDB.
	ErrPermission = errors.New("permission denied")

	// ErrMigrate is returned when the migration engine fails. The database may
	// have been created; New attempts to reclaim it before returning.
	ErrMigrate = errors.New("migration failed")

	// ErrTeardown is returned by Wait, Reclaim, and Sweep when terminating
	// sessions or dropping the database fails.
	ErrTeardown = errors.New("teardown failed")
)

// Operation names used in Error.
const (
	opGenerate  = "generate"
	opConnect   = "connect"
	opCreate    = "create"
	opMigrate   = "migrate"
	opPool      = "pool"
	opTerminate = "terminate"
	opDrop      = "drop"
	opList      = "list"
)

// Error carries the database and lifecycle step a failure belongs to.
type Error struct {
	Database  string // The ephemeral database name, empty if not yet generated
	Operation string // The step that failed (e.g., "create", "migrate", "drop")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for Error.
func (e *Error) Error() string {
	target := e.Database
	if target == "" {
		target = "test database"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Operation, target, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Operation, target, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(database, operation, message string, err error) *Error {
	return &Error{
		Database:  database,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// classify wraps err with sentinel plus any sentinel implied by its SQLSTATE.
func classify(sentinel, err error) error {
	switch {
	case err == nil:
		return nil
	case (postgres.IsAuthFailure(err) || postgres.IsConnectError(err)) && sentinel != ErrConnect:
		return fmt.Errorf("%w: %w: %w", sentinel, ErrConnect, err)
	case postgres.IsInsufficientPrivilege(err):
		return fmt.Errorf("%w: %w: %w", sentinel, ErrPermission, err)
	case sentinel == ErrCreate && postgres.IsDuplicateDatabase(err):
		return fmt.Errorf("%w: %w", ErrDatabaseExists, err)
	default:
		return fmt.Errorf("%w: %w", sentinel, err)
	}
}

// IsDatabaseNotExist reports whether err says the target database does not
// exist. Connecting to URL() after teardown fails this way.
func IsDatabaseNotExist(err error) bool {
	return postgres.IsInvalidCatalogName(err)
}
