package testdb

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Options describe the server an ephemeral database is created on and the
// migrations applied to it.
type Options struct {
	// User and Password authenticate against the server. An empty Password
	// produces a connection string without a password segment.
	User     string
	Password string

	// Host and Port locate the server. Unix socket directories are not supported.
	Host string
	Port int

	// Migrations holds goose SQL migrations (00001_name.sql) at its root.
	Migrations fs.FS

	// MigrationsDir is a directory of migrations, used when Migrations is nil.
	// When both are empty the database is created without running migrations.
	MigrationsDir string

	// NamePrefix overrides NamePrefix. It must be a lowercase identifier.
	NamePrefix string

	// Timeout bounds each server round trip. Zero means DefaultTimeout.
	Timeout time.Duration

	// MigrationTimeout bounds the whole migration run. Zero means DefaultMigrationTimeout.
	MigrationTimeout time.Duration

	// Logger receives lifecycle and teardown-failure logs. Nil means slog.Default().
	Logger *slog.Logger
}

// OptionsFromURL extracts user, password, host, and port from a PostgreSQL
// connection string. Any database name in the URL is ignored.
func OptionsFromURL(rawURL string) (Options, error) {
	cfg, err := pgconn.ParseConfig(rawURL)
	if err != nil {
		return Options{}, fmt.Errorf("%w: parse connection string: %w", ErrInvalidOptions, err)
	}
	return Options{
		User:     cfg.User,
		Password: cfg.Password,
		Host:     cfg.Host,
		Port:     int(cfg.Port),
	}, nil
}

// ServerURL returns the administrative connection string the options describe.
func (o Options) ServerURL() string {
	return buildServerURL(o.User, o.Password, o.Host, o.Port)
}

func (o Options) withDefaults() Options {
	if o.NamePrefix == "" {
		o.NamePrefix = NamePrefix
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MigrationTimeout <= 0 {
		o.MigrationTimeout = DefaultMigrationTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) validate() error {
	var problems []error

	if o.User == "" {
		problems = append(problems, errors.New("user is required"))
	}
	if o.Host == "" {
		problems = append(problems, errors.New("host is required"))
	} else if strings.HasPrefix(o.Host, "/") {
		problems = append(problems, fmt.Errorf("host %q is a unix socket directory; use a TCP host", o.Host))
	}
	if o.Port <= 0 || o.Port > 65535 {
		problems = append(problems, fmt.Errorf("port %d is out of range", o.Port))
	}
	if err := validatePrefix(o.NamePrefix); err != nil {
		problems = append(problems, err)
	}
	if o.Migrations != nil && o.MigrationsDir != "" {
		problems = append(problems, errors.New("set either Migrations or MigrationsDir, not both"))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, errors.Join(problems...))
	}
	return nil
}

// migrationSource resolves the configured source. A nil result means no migrations.
func (o Options) migrationSource() (fs.FS, error) {
	if o.Migrations != nil {
		return o.Migrations, nil
	}
	if o.MigrationsDir == "" {
		return nil, nil
	}

	info, err := os.Stat(o.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: migrations directory: %w", ErrInvalidOptions, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: migrations path %s is not a directory", ErrInvalidOptions, o.MigrationsDir)
	}
	return os.DirFS(o.MigrationsDir), nil
}
