package config

import (
	"log/slog"

	"github.com/phrazzld/ephemeraldb/testdb"
)

const defaultPort = 5432

// TestDBOptions converts the database and migration settings into
// testdb.Options. Explicit user, password, host, and port settings override
// the corresponding parts of the database URL.
func (c *Config) TestDBOptions(logger *slog.Logger) (testdb.Options, error) {
	var opts testdb.Options
	if c.Database.URL != "" {
		parsed, err := testdb.OptionsFromURL(c.Database.URL)
		if err != nil {
			return testdb.Options{}, err
		}
		opts = parsed
	}

	if c.Database.User != "" {
		opts.User = c.Database.User
	}
	if c.Database.Password != "" {
		opts.Password = c.Database.Password
	}
	if c.Database.Host != "" {
		opts.Host = c.Database.Host
	}
	if c.Database.Port != 0 {
		opts.Port = c.Database.Port
	}

	if opts.Port == 0 {
		opts.Port = defaultPort
	}

	opts.MigrationsDir = c.Migrations.Dir
	opts.NamePrefix = c.Sweep.Prefix
	opts.Timeout = c.Database.Timeout
	opts.MigrationTimeout = c.Migrations.Timeout
	opts.Logger = logger
	return opts, nil
}

// SweepOptions converts the sweep settings into testdb.SweepOptions.
func (c *Config) SweepOptions(logger *slog.Logger) (testdb.SweepOptions, error) {
	opts, err := c.TestDBOptions(logger)
	if err != nil {
		return testdb.SweepOptions{}, err
	}
	return testdb.SweepOptions{
		ServerURL: opts.ServerURL(),
		Prefix:    c.Sweep.Prefix,
		OlderThan: c.Sweep.OlderThan,
		DryRun:    c.Sweep.DryRun,
		Force:     c.Sweep.Force,
		Timeout:   c.Database.Timeout,
		Logger:    logger,
	}, nil
}
