package testdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/ephemeraldb/internal/platform/postgres"
	"github.com/phrazzld/ephemeraldb/internal/redact"
)

// terminateSessionsSQL ends every other session attached to the database.
// The administrative connection is excluded so it cannot terminate itself.
const terminateSessionsSQL = `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE pid <> pg_backend_pid() AND datname = $1`

// dropAttempts bounds retries when a client reconnects between terminate and drop.
const dropAttempts = 3

// Close schedules the database for teardown and returns immediately. Teardown
// runs on its own goroutine: it terminates every session still attached to the
// database, including ones from pools the caller forgot to close, then drops
// it. Failures are logged, never returned or panicked; use Wait to observe
// them. Only the first call has any effect.
func (tdb *TestDB) Close() {
	tdb.closeOnce.Do(func() {
		tdb.logger.Debug("scheduling test database teardown")
		go tdb.teardown()
	})
}

// Done returns a channel that is closed once teardown has finished,
// successfully or not. It is never closed if Close is not called.
func (tdb *TestDB) Done() <-chan struct{} {
	return tdb.done
}

// Wait blocks until teardown finishes or ctx is done, and returns the
// teardown error. It does not start teardown.
func (tdb *TestDB) Wait(ctx context.Context) error {
	select {
	case <-tdb.done:
		return tdb.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (tdb *TestDB) teardown() {
	defer close(tdb.done)
	defer func() {
		if r := recover(); r != nil {
			tdb.err = newError(tdb.name, opDrop, "teardown panicked", fmt.Errorf("%w: %v", ErrTeardown, r))
			tdb.logger.Error("test database teardown panicked", "panic", fmt.Sprint(r))
		}
	}()

	start := time.Now()
	// The caller's context may already be cancelled by the time Close runs.
	if err := tdb.reclaim(context.Background()); err != nil {
		tdb.err = err
		tdb.logger.Error("failed to drop test database, it is left for Sweep",
			"error", redact.Error(err))
		return
	}

	tdb.logger.Info("test database dropped",
		"duration_ms", time.Since(start).Milliseconds())
}

func (tdb *TestDB) reclaim(ctx context.Context) error {
	return reclaimDatabase(ctx, tdb.ServerURL(), tdb.name, tdb.timeout)
}

// Reclaim terminates the sessions attached to the named database and drops it,
// synchronously. It is the teardown step of Close, exposed for tooling that
// cleans up databases left behind by another process.
func Reclaim(ctx context.Context, serverURL, name string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return reclaimDatabase(ctx, serverURL, name, timeout)
}

func reclaimDatabase(ctx context.Context, serverURL, name string, timeout time.Duration) error {
	conn, err := connectAdmin(ctx, serverURL, timeout)
	if err != nil {
		return newError(name, opConnect, "open administrative connection",
			fmt.Errorf("%w: %w", ErrTeardown, classify(ErrConnect, err)))
	}
	defer closeConn(conn, timeout, nil)

	return dropDatabase(ctx, conn, name, timeout)
}

// dropDatabase terminates other sessions on name and then drops it, on conn.
// The drop is attempted even when termination fails; a termination error is
// only reported alongside a failed drop.
func dropDatabase(ctx context.Context, conn *pgx.Conn, name string, timeout time.Duration) error {
	ident := pgx.Identifier{name}.Sanitize()

	var terminateErr, dropErr error
	for attempt := 1; attempt <= dropAttempts; attempt++ {
		terminateErr = terminateSessions(ctx, conn, name, timeout)

		dropCtx, cancel := context.WithTimeout(ctx, timeout)
		_, dropErr = conn.Exec(dropCtx, "DROP DATABASE "+ident)
		cancel()

		if dropErr == nil || !postgres.IsObjectInUse(dropErr) {
			break
		}
	}

	if dropErr == nil {
		return nil
	}

	var errs []error
	if terminateErr != nil {
		errs = append(errs, newError(name, opTerminate, "terminate sessions", classify(ErrTeardown, terminateErr)))
	}
	errs = append(errs, newError(name, opDrop, "DROP DATABASE failed", classify(ErrTeardown, dropErr)))
	return errors.Join(errs...)
}

func terminateSessions(ctx context.Context, conn *pgx.Conn, name string, timeout time.Duration) error {
	termCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := conn.Exec(termCtx, terminateSessionsSQL, name)
	return err
}
