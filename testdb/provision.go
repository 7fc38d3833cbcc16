package testdb

import (
	"context"
	"database/sql"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/ephemeraldb/internal/ciutil"
	"github.com/phrazzld/ephemeraldb/internal/migrate"
	"github.com/phrazzld/ephemeraldb/internal/redact"
)

// provision runs create, connect, then migrate, strictly in that order, on the
// calling goroutine.
func (tdb *TestDB) provision(ctx context.Context, migrations fs.FS, migrationTimeout time.Duration) error {
	start := time.Now()
	tdb.logger.Debug("provisioning test database",
		"server", ciutil.MaskSensitiveValue(tdb.ServerURL()))

	if err := tdb.createDatabase(ctx); err != nil {
		return err
	}

	if err := tdb.migrate(ctx, migrations, migrationTimeout); err != nil {
		// Nothing has used the database yet, so dropping it here is safe.
		if reclaimErr := tdb.reclaim(context.Background()); reclaimErr != nil {
			tdb.logger.Warn("failed to reclaim database after provisioning failure",
				"error", redact.Error(reclaimErr))
		}
		return err
	}

	tdb.logger.Info("test database ready",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// createDatabase issues CREATE DATABASE over a single administrative connection
// and tags the new database with its creation time for Sweep.
func (tdb *TestDB) createDatabase(ctx context.Context) error {
	conn, err := connectAdmin(ctx, tdb.ServerURL(), tdb.timeout)
	if err != nil {
		return newError(tdb.name, opConnect, "open administrative connection", classify(ErrConnect, err))
	}
	defer closeConn(conn, tdb.timeout, tdb.logger)

	ident := pgx.Identifier{tdb.name}.Sanitize()

	createCtx, cancel := context.WithTimeout(ctx, tdb.timeout)
	defer cancel()
	if _, err := conn.Exec(createCtx, "CREATE DATABASE "+ident); err != nil {
		return newError(tdb.name, opCreate, "CREATE DATABASE failed", classify(ErrCreate, err))
	}

	commentCtx, cancelComment := context.WithTimeout(ctx, tdb.timeout)
	defer cancelComment()
	// Sweep measures age against the server clock, so record creation with it too.
	createdAt := time.Now()
	if err := conn.QueryRow(commentCtx, "SELECT now()").Scan(&createdAt); err != nil {
		tdb.logger.Warn("failed to read server clock, using local time",
			"error", redact.Error(err))
		createdAt = time.Now()
	}
	comment := createdAtComment(createdAt)
	if _, err := conn.Exec(commentCtx, "COMMENT ON DATABASE "+ident+" IS "+quoteLiteral(comment)); err != nil {
		tdb.logger.Warn("failed to record creation time, Sweep will skip this database",
			"error", redact.Error(err))
	}

	return nil
}

// migrate opens a connection scoped to the new database, proving URL() works,
// and applies migrations when there are any.
func (tdb *TestDB) migrate(ctx context.Context, migrations fs.FS, timeout time.Duration) error {
	db, err := sql.Open("pgx", tdb.URL())
	if err != nil {
		return newError(tdb.name, opConnect, "open scoped connection", classify(ErrConnect, err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			tdb.logger.Warn("failed to close migration connection", "error", redact.Error(err))
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, tdb.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return newError(tdb.name, opConnect, "open scoped connection", classify(ErrConnect, err))
	}
	tdb.logger.Debug("scoped connection verified")

	if migrations == nil {
		return nil
	}

	migrateCtx, cancelMigrate := context.WithTimeout(ctx, timeout)
	defer cancelMigrate()

	migrateOpts := migrate.Options{TableName: MigrationTableName, Logger: tdb.logger}
	results, err := migrate.Up(migrateCtx, db, migrations, migrateOpts)
	if err != nil {
		return newError(tdb.name, opMigrate, "apply migrations", classify(ErrMigrate, err))
	}

	version, err := migrate.Version(migrateCtx, db, migrations, migrateOpts)
	if err != nil {
		return newError(tdb.name, opMigrate, "read schema version", classify(ErrMigrate, err))
	}

	tdb.logger.Debug("migrations applied",
		"count", len(results),
		"schema_version", version)
	return nil
}

// connectAdmin opens a connection with no database selected. The timeout
// covers connection establishment only.
func connectAdmin(ctx context.Context, serverURL string, timeout time.Duration) (*pgx.Conn, error) {
	connCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return pgx.Connect(connCtx, serverURL)
}

func closeConn(conn *pgx.Conn, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := conn.Close(ctx); err != nil && logger != nil {
		logger.Warn("failed to close administrative connection", "error", redact.Error(err))
	}
}

func createdAtComment(t time.Time) string {
	return createdAtCommentPrefix + t.UTC().Format(time.RFC3339Nano)
}

// parseCreatedAt reads the timestamp written by createdAtComment.
func parseCreatedAt(comment string) (time.Time, bool) {
	raw, ok := strings.CutPrefix(comment, createdAtCommentPrefix)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// quoteLiteral quotes s as a SQL string literal. COMMENT ON does not accept
// bind parameters.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
