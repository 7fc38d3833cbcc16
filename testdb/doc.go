// Package testdb provisions throwaway PostgreSQL databases for tests.
//
// Each call to New creates a database with a unique, randomly generated name
// on a shared server, applies goose migrations to it, and returns a handle.
// Tests that each own a database share no schema or data, so they can run in
// parallel against one server without transactions or truncation.
//
// # Lifecycle
//
//  1. New generates a name (test_ followed by 32 hex digits), runs
//     CREATE DATABASE over an administrative connection, and applies the
//     configured migrations over a connection scoped to the new database.
//  2. Pool and SQLDB open connection pools on the database. The caller
//     closes them.
//  3. Close schedules teardown and returns immediately. A background goroutine
//     terminates every session still attached to the database and drops it.
//     Failures are logged, and Wait reports them to callers that care.
//
// # Basic Usage
//
//	func TestTodos(t *testing.T) {
//	    t.Parallel()
//
//	    opts, err := testdb.OptionsFromURL(os.Getenv("EPHEMERALDB_TEST_DB_URL"))
//	    require.NoError(t, err)
//	    opts.MigrationsDir = "../migrations"
//
//	    tdb := testdb.NewT(t, opts) // dropped when the test finishes
//
//	    pool, err := tdb.Pool(context.Background(), 4)
//	    require.NoError(t, err)
//	    defer pool.Close()
//
//	    // use pool
//	}
//
// # Errors
//
// New returns a *Error describing the failed step. Its chain wraps one of
// the sentinel errors (ErrInvalidOptions, ErrConnect, ErrCreate,
// ErrMigrate, and so on), so callers can branch with errors.Is. When
// migrations fail, New drops the database it just created before returning.
//
// # Orphans
//
// A process that exits before its teardown goroutine runs leaves its
// database behind. Every database is tagged at creation with a comment
// recording its creation time; Sweep drops tagged databases older than a
// threshold, and ListEphemeral shows what is there.
//
// The server role needs the CREATEDB privilege, and must be allowed to
// terminate sessions opened by the same role.
package testdb
