package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phrazzld/ephemeraldb/internal/redact"
)

// poolSize applies the default and rejects sizes pgxpool cannot represent.
func poolSize(maxConns int) (int, error) {
	if maxConns <= 0 {
		return DefaultMaxConns, nil
	}
	if int64(maxConns) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: pool size %d exceeds %d", ErrInvalidOptions, maxConns, math.MaxInt32)
	}
	return maxConns, nil
}

// Pool opens a pgx connection pool on the ephemeral database holding at most
// maxConns connections (DefaultMaxConns when maxConns <= 0). The pool is
// pinged before it is returned. The caller closes it.
func (tdb *TestDB) Pool(ctx context.Context, maxConns int) (*pgxpool.Pool, error) {
	maxConns, err := poolSize(maxConns)
	if err != nil {
		return nil, newError(tdb.name, opPool, "size pool", err)
	}

	cfg, err := pgxpool.ParseConfig(tdb.URL())
	if err != nil {
		return nil, newError(tdb.name, opPool, "parse pool config", classify(ErrConnect, err))
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, newError(tdb.name, opPool, "create pool", classify(ErrConnect, err))
	}

	pingCtx, cancel := context.WithTimeout(ctx, tdb.timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, newError(tdb.name, opPool, "ping pool", classify(ErrConnect, err))
	}

	return pool, nil
}

// SQLDB is Pool for database/sql users, backed by the pgx stdlib driver.
func (tdb *TestDB) SQLDB(ctx context.Context, maxConns int) (*sql.DB, error) {
	maxConns, err := poolSize(maxConns)
	if err != nil {
		return nil, newError(tdb.name, opPool, "size pool", err)
	}

	db, err := sql.Open("pgx", tdb.URL())
	if err != nil {
		return nil, newError(tdb.name, opPool, "open database", classify(ErrConnect, err))
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, tdb.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			tdb.logger.Warn("failed to close database after ping failure", "error", redact.Error(closeErr))
		}
		return nil, newError(tdb.name, opPool, "ping database", classify(ErrConnect, err))
	}

	return db, nil
}
