package testdb

import "time"

const (
	// NamePrefix is prepended to every generated database name. It keeps
	// ephemeral databases apart from real ones and lets Sweep find orphans.
	NamePrefix = "test_"

	// DefaultMaxConns bounds the pools returned by Pool and SQLDB when the
	// caller passes a non-positive size.
	DefaultMaxConns = 5

	// DefaultTimeout bounds each server round trip during provisioning and teardown.
	DefaultTimeout = 30 * time.Second

	// DefaultMigrationTimeout bounds the whole migration run.
	DefaultMigrationTimeout = 5 * time.Minute

	// MigrationTableName is the name of the table used by goose to track migrations.
	MigrationTableName = "schema_migrations"

	// DefaultSweepAge is how old an orphan must be before Sweep drops it.
	DefaultSweepAge = time.Hour

	scheme = "postgres"

	// createdAtCommentPrefix tags the database comment written at creation.
	createdAtCommentPrefix = "ephemeraldb:created_at="
)
