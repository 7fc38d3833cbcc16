package testdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/ephemeraldb/internal/redact"
)

// listEphemeralSQL returns candidate databases with their comment, the
// number of sessions currently attached, and the server clock.
const listEphemeralSQL = `
SELECT d.datname,
       COALESCE(shobj_description(d.oid, 'pg_database'), ''),
       (SELECT count(*) FROM pg_stat_activity a WHERE a.datname = d.datname),
       now()
FROM pg_database d
WHERE NOT d.datistemplate AND left(d.datname, length($1)) = $1
ORDER BY d.datname`

// SweepOptions configure ListEphemeral and Sweep.
type SweepOptions struct {
	// ServerURL is an administrative connection string. Any database in it is
	// only used to connect; it is never dropped unless it matches Prefix.
	ServerURL string

	// Prefix selects candidate names. Empty means NamePrefix.
	Prefix string

	// OlderThan is the minimum age of a database Sweep drops. Zero means DefaultSweepAge.
	OlderThan time.Duration

	// DryRun reports what Sweep would drop without dropping anything.
	DryRun bool

	// Force also drops stale databases that still have sessions attached.
	// Without it a database in use is skipped, however old it is.
	Force bool

	// Timeout bounds each server round trip. Zero means DefaultTimeout.
	Timeout time.Duration

	Logger *slog.Logger

	// Now overrides the clock used for age calculations. Nil means the
	// server's clock, the same one creation times are recorded with.
	Now func() time.Time
}

// Database describes an ephemeral database found on the server.
type Database struct {
	Name string
	// CreatedAt is zero when the database carries no creation comment.
	CreatedAt time.Time
	// Sessions is the number of connections attached when it was listed.
	Sessions int64
}

// Age returns how long ago the database was created, or zero when unknown.
func (d Database) Age(now time.Time) time.Duration {
	if d.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(d.CreatedAt)
}

func (o SweepOptions) withDefaults() SweepOptions {
	if o.Prefix == "" {
		o.Prefix = NamePrefix
	}
	if o.OlderThan <= 0 {
		o.OlderThan = DefaultSweepAge
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o SweepOptions) validate() error {
	var problems []error
	if o.ServerURL == "" {
		problems = append(problems, errors.New("server URL is required"))
	}
	if err := validatePrefix(o.Prefix); err != nil {
		problems = append(problems, err)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, errors.Join(problems...))
	}
	return nil
}

// ListEphemeral returns the databases on the server whose names were
// generated with opts.Prefix, in name order.
func ListEphemeral(ctx context.Context, opts SweepOptions) ([]Database, error) {
	databases, _, err := listEphemeral(ctx, opts.withDefaults())
	return databases, err
}

// listEphemeral also returns the server time the listing was taken at, or
// the zero time when nothing matched.
func listEphemeral(ctx context.Context, opts SweepOptions) ([]Database, time.Time, error) {
	var serverNow time.Time
	if err := opts.validate(); err != nil {
		return nil, serverNow, err
	}

	conn, err := connectAdmin(ctx, opts.ServerURL, opts.Timeout)
	if err != nil {
		return nil, serverNow, newError("", opConnect, "open administrative connection", classify(ErrConnect, err))
	}
	defer closeConn(conn, opts.Timeout, opts.Logger)

	queryCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	rows, err := conn.Query(queryCtx, listEphemeralSQL, opts.Prefix)
	if err != nil {
		return nil, serverNow, newError("", opList, "list databases", err)
	}
	defer rows.Close()

	var databases []Database
	for rows.Next() {
		var (
			name     string
			comment  string
			sessions int64
		)
		if err := rows.Scan(&name, &comment, &sessions, &serverNow); err != nil {
			return nil, serverNow, newError("", opList, "scan database row", err)
		}
		if !IsEphemeralName(name, opts.Prefix) {
			continue
		}
		createdAt, _ := parseCreatedAt(comment)
		databases = append(databases, Database{
			Name:      name,
			CreatedAt: createdAt,
			Sessions:  sessions,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, serverNow, newError("", opList, "iterate database rows", err)
	}

	return databases, serverNow, nil
}

// stale returns the databases created before now-olderThan. Databases with
// no creation time are never stale, and neither are ones with sessions
// attached unless force is set.
func stale(databases []Database, now time.Time, olderThan time.Duration, force bool) []Database {
	cutoff := now.Add(-olderThan)
	var out []Database
	for _, d := range databases {
		if d.CreatedAt.IsZero() || !d.CreatedAt.Before(cutoff) {
			continue
		}
		if d.Sessions > 0 && !force {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Sweep drops ephemeral databases older than opts.OlderThan, left behind by
// processes that exited before their teardown ran. Databases that still have
// sessions attached are skipped unless opts.Force is set. It returns the names
// that were dropped (or, with DryRun, would be). A failure to drop one
// database does not stop the others; all failures are joined in the returned error.
func Sweep(ctx context.Context, opts SweepOptions) ([]string, error) {
	opts = opts.withDefaults()

	databases, serverNow, err := listEphemeral(ctx, opts)
	if err != nil {
		return nil, err
	}

	now := serverNow
	if opts.Now != nil {
		now = opts.Now()
	}
	candidates := stale(databases, now, opts.OlderThan, opts.Force)
	opts.Logger.Info("sweeping orphaned test databases",
		"found", len(databases),
		"stale", len(candidates),
		"older_than", opts.OlderThan.String(),
		"dry_run", opts.DryRun,
		"force", opts.Force)

	var (
		dropped []string
		errs    []error
	)
	for _, d := range candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		log := opts.Logger.With("database", d.Name, "age", d.Age(now).Round(time.Second).String())
		if opts.DryRun {
			log.Info("would drop orphaned test database", "sessions", d.Sessions)
			dropped = append(dropped, d.Name)
			continue
		}

		if err := reclaimDatabase(ctx, opts.ServerURL, d.Name, opts.Timeout); err != nil {
			log.Error("failed to drop orphaned test database", "error", redact.Error(err))
			errs = append(errs, err)
			continue
		}
		log.Info("dropped orphaned test database")
		dropped = append(dropped, d.Name)
	}

	return dropped, errors.Join(errs...)
}
