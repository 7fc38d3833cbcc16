package testdb

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/ephemeraldb/internal/redact"
)

// TestDB is a handle to one ephemeral database. It is created ready to use by
// New and dropped in the background after Close. All methods are safe for
// concurrent use.
type TestDB struct {
	name     string
	user     string
	password string
	host     string
	port     int

	timeout time.Duration
	logger  *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
	// err is written by the teardown goroutine before done is closed.
	err error
}

// New creates a uniquely named database, applies the configured migrations,
// and returns once the database is ready. On error no handle is returned; if
// migrations failed after the database was created, New tries to drop it first.
func New(ctx context.Context, opts Options) (*TestDB, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	source, err := opts.migrationSource()
	if err != nil {
		return nil, err
	}

	name, err := newDatabaseName(opts.NamePrefix)
	if err != nil {
		return nil, newError("", opGenerate, "generate database name", err)
	}

	tdb := &TestDB{
		name:     name,
		user:     opts.User,
		password: opts.Password,
		host:     opts.Host,
		port:     opts.Port,
		timeout:  opts.Timeout,
		logger:   opts.Logger.With("component", "testdb", "database", name),
		done:     make(chan struct{}),
	}

	if err := tdb.provision(ctx, source, opts.MigrationTimeout); err != nil {
		return nil, err
	}

	return tdb, nil
}

// NewT is New for tests: it fails t immediately if provisioning fails and
// registers Close with t.Cleanup, so the database is dropped when the test
// and its subtests finish.
func NewT(t testing.TB, opts Options) *TestDB {
	t.Helper()

	tdb, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("failed to provision test database: %s", redact.Error(err))
	}

	t.Cleanup(tdb.Close)
	return tdb
}

// Name returns the generated database name.
func (tdb *TestDB) Name() string {
	return tdb.name
}

// ServerURL returns the administrative connection string, with no database selected.
func (tdb *TestDB) ServerURL() string {
	return buildServerURL(tdb.user, tdb.password, tdb.host, tdb.port)
}

// URL returns the connection string scoped to the ephemeral database.
func (tdb *TestDB) URL() string {
	return buildDatabaseURL(tdb.ServerURL(), tdb.name)
}
