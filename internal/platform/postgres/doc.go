// Package postgres classifies errors returned by the pgx driver by their
// PostgreSQL SQLSTATE codes so that callers can distinguish connection,
// permission, and catalog failures without string matching.
package postgres
