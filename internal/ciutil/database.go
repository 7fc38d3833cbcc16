package ciutil

import "log/slog"

// GetTestDatabaseURL returns the administrative database URL used by
// integration tests. It checks EPHEMERALDB_TEST_DB_URL first and falls back to
// DATABASE_URL. An empty string means no server is available and tests that
// need one should skip.
func GetTestDatabaseURL(logger *slog.Logger) string {
	dbURL := GetEnvWithFallbacks([]string{EnvTestDBURL, EnvDatabaseURL}, "", logger)

	if logger != nil {
		if dbURL == "" {
			logger.Info("No database URL environment variables found")
		} else {
			logger.Debug("Using database URL from environment",
				"value", MaskSensitiveValue(dbURL),
				"ci_environment", IsCI(),
			)
		}
	}

	return dbURL
}
