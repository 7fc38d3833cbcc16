package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable Load reads.
const EnvPrefix = "EPHEMERALDB"

// configName is the file searched for in the working directory when no
// explicit path is given (ephemeraldb.yaml, ephemeraldb.toml, ...).
const configName = "ephemeraldb"

// flagKeys maps command-line flag names to configuration keys. Flags are
// bound only when present in the flag set passed to Load.
var flagKeys = map[string]string{
	"database-url":      "database.url",
	"timeout":           "database.timeout",
	"migrations":        "migrations.dir",
	"migration-timeout": "migrations.timeout",
	"prefix":            "sweep.prefix",
	"older-than":        "sweep.older_than",
	"dry-run":           "sweep.dry_run",
	"log-level":         "log.level",
	"log-format":        "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.timeout", 30*time.Second)
	v.SetDefault("migrations.dir", "")
	v.SetDefault("migrations.timeout", 5*time.Minute)
	v.SetDefault("sweep.prefix", "test_")
	v.SetDefault("sweep.older_than", time.Hour)
	v.SetDefault("sweep.dry_run", false)
	v.SetDefault("sweep.force", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
}

// Load configuration from defaults, a config file, environment variables, and flags.
// Precedence, highest first: flags that were set, EPHEMERALDB_* variables,
// the config file, defaults. DATABASE_URL is accepted as a fallback for
// EPHEMERALDB_DATABASE_URL.
//
// path names a config file explicitly; when empty, ephemeraldb.{yaml,toml,json}
// is looked up in the working directory and its absence is not an error.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	// Initialize a new viper instance
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind database URL environment: %w", err)
	}

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	if flags != nil {
		for flagName, key := range flagKeys {
			flag := flags.Lookup(flagName)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", flagName, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(configName)
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
