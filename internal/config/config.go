package config

import "time"

// Config holds all ephemeraldb configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Migrations MigrationsConfig `mapstructure:"migrations"`
	Sweep      SweepConfig      `mapstructure:"sweep"`
	Log        LogConfig        `mapstructure:"log" validate:"required"`
}

// DatabaseConfig locates the server ephemeral databases are created on.
// URL, when set, supplies any of User, Password, Host, and Port left empty.
type DatabaseConfig struct {
	URL      string        `mapstructure:"url" validate:"omitempty,url"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port" validate:"omitempty,gt=0,lt=65536"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// MigrationsConfig points at goose SQL migrations applied to new databases.
type MigrationsConfig struct {
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// SweepConfig controls orphan cleanup.
type SweepConfig struct {
	Prefix    string        `mapstructure:"prefix" validate:"required"`
	OlderThan time.Duration `mapstructure:"older_than" validate:"gt=0"`
	DryRun    bool          `mapstructure:"dry_run"`
	// Force also drops stale databases that still have sessions attached.
	Force bool `mapstructure:"force"`
}

// LogConfig configures the process logger. Format "auto" picks text on a
// terminal and JSON otherwise.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=auto json text"`
}
