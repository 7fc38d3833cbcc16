package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	// uniqueViolationCode is raised when two CREATE DATABASE statements race
	// on the same name and both reach the pg_database unique index.
	uniqueViolationCode = "23505"

	// duplicateDatabaseCode is the PostgreSQL error code for CREATE DATABASE on an existing name
	duplicateDatabaseCode = "42P04"

	// invalidCatalogNameCode is returned when connecting to or dropping a database that does not exist
	invalidCatalogNameCode = "3D000"

	// insufficientPrivilegeCode is the PostgreSQL error code for permission failures
	insufficientPrivilegeCode = "42501"

	// objectInUseCode is returned by DROP DATABASE while other sessions are still attached
	objectInUseCode = "55006"

	// invalidPasswordCode and invalidAuthorizationCode cover authentication failures
	invalidPasswordCode      = "28P01"
	invalidAuthorizationCode = "28000"
)

// Code returns the SQLSTATE carried by err, or an empty string when err is
// not (and does not wrap) a *pgconn.PgError.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateDatabase reports whether err means the database name is already taken.
// Both the explicit duplicate_database error and the catalog unique violation
// produced by concurrent creators are treated as duplicates.
func IsDuplicateDatabase(err error) bool {
	code := Code(err)
	return code == duplicateDatabaseCode || code == uniqueViolationCode
}

// IsInvalidCatalogName reports whether err says the target database does not exist.
func IsInvalidCatalogName(err error) bool {
	return Code(err) == invalidCatalogNameCode
}

// IsInsufficientPrivilege reports whether the role lacks the privilege for the statement,
// for example CREATEDB for CREATE DATABASE.
func IsInsufficientPrivilege(err error) bool {
	return Code(err) == insufficientPrivilegeCode
}

// IsObjectInUse reports whether a DROP DATABASE failed because sessions are still attached.
func IsObjectInUse(err error) bool {
	return Code(err) == objectInUseCode
}

// IsAuthFailure reports whether the server rejected the credentials.
func IsAuthFailure(err error) bool {
	code := Code(err)
	return code == invalidPasswordCode || code == invalidAuthorizationCode
}

// IsConnectError reports whether err happened while establishing a connection,
// before any statement was executed.
func IsConnectError(err error) bool {
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
