package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// DefaultTableName is the name of the table used by goose to track migrations.
const DefaultTableName = "schema_migrations"

var (
	// ErrNoDatabase is returned when no *sql.DB is given.
	ErrNoDatabase = errors.New("migrate: database must not be nil")

	// ErrNoSource is returned when no migration filesystem is given.
	ErrNoSource = errors.New("migrate: migration source must not be nil")
)

// Options configures a migration run.
type Options struct {
	// TableName overrides DefaultTableName.
	TableName string
	// Logger receives goose output. Nil means slog.Default().
	Logger *slog.Logger
}

// Result describes one applied migration.
type Result struct {
	Version  int64
	Path     string
	Duration time.Duration
	Empty    bool
}

func newProvider(db *sql.DB, fsys fs.FS, opts Options) (*goose.Provider, error) {
	if db == nil {
		return nil, ErrNoDatabase
	}
	if fsys == nil {
		return nil, ErrNoSource
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = DefaultTableName
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := database.NewStore(database.DialectPostgres, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to create goose store: %w", err)
	}

	return goose.NewProvider("", db, fsys,
		goose.WithStore(store),
		goose.WithLogger(&slogGooseLogger{logger: logger}),
	)
}

// Up applies every pending migration found at the root of fsys, in version
// order. A source without migration files is not an error; it yields no results.
func Up(ctx context.Context, db *sql.DB, fsys fs.FS, opts Options) ([]Result, error) {
	provider, err := newProvider(db, fsys, opts)
	if errors.Is(err, goose.ErrNoMigrations) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	applied, err := provider.Up(ctx)
	if err != nil {
		return toResults(applied), fmt.Errorf("failed to run migrations: %w", err)
	}

	return toResults(applied), nil
}

// Version returns the highest applied migration version, or 0 when none are applied.
func Version(ctx context.Context, db *sql.DB, fsys fs.FS, opts Options) (int64, error) {
	provider, err := newProvider(db, fsys, opts)
	if errors.Is(err, goose.ErrNoMigrations) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}

func toResults(applied []*goose.MigrationResult) []Result {
	results := make([]Result, 0, len(applied))
	for _, r := range applied {
		if r == nil || r.Source == nil {
			continue
		}
		results = append(results, Result{
			Version:  r.Source.Version,
			Path:     r.Source.Path,
			Duration: r.Duration,
			Empty:    r.Empty,
		})
	}
	return results
}
