package ciutil

import (
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// Common environment variable names used across the codebase.
// These constants ensure consistent access and prevent typos.
const (
	// CI environment detection variables
	EnvCI               = "CI"
	EnvGitHubActions    = "GITHUB_ACTIONS"
	EnvGitHubWorkspace  = "GITHUB_WORKSPACE"
	EnvGitLabCI         = "GITLAB_CI"
	EnvGitLabProjectDir = "CI_PROJECT_DIR"
	EnvJenkinsURL       = "JENKINS_URL"
	EnvTravisCI         = "TRAVIS"
	EnvCircleCI         = "CIRCLECI"

	// Database connection environment variables
	EnvDatabaseURL = "DATABASE_URL"
	EnvTestDBURL   = "EPHEMERALDB_TEST_DB_URL" // Preferred standardized name

	// Log settings
	EnvLogLevel  = "EPHEMERALDB_LOG_LEVEL"
	EnvLogFormat = "EPHEMERALDB_LOG_FORMAT"

	// Common default values
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// IsCI returns true if the current environment is a CI environment.
// It checks for common CI environment variables across different CI providers.
func IsCI() bool {
	return os.Getenv(EnvCI) != "" ||
		os.Getenv(EnvGitHubActions) != "" ||
		os.Getenv(EnvGitLabCI) != "" ||
		os.Getenv(EnvJenkinsURL) != "" ||
		os.Getenv(EnvTravisCI) != "" ||
		os.Getenv(EnvCircleCI) != ""
}

// IsGitHubActions returns true if the current environment is GitHub Actions.
func IsGitHubActions() bool {
	return os.Getenv(EnvGitHubActions) != "" && os.Getenv(EnvGitHubWorkspace) != ""
}

// IsGitLabCI returns true if the current environment is GitLab CI.
func IsGitLabCI() bool {
	return os.Getenv(EnvGitLabCI) != "" && os.Getenv(EnvGitLabProjectDir) != ""
}

// GetEnvWithFallbacks returns the value of the first non-empty environment variable
// from the provided list. If no environment variables are set, it returns the defaultValue.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		if val := os.Getenv(envVar); val != "" {
			if i > 0 && logger != nil {
				logger.Warn("Using fallback environment variable",
					"used_var", envVar,
					"preferred_var", envVars[0],
					"value", MaskSensitiveValue(val),
				)
			}
			return val
		}
	}
	return defaultValue
}

// MaskSensitiveValue masks sensitive data in values like database URLs to prevent
// exposing credentials in logs. This should be used whenever a connection string
// or a potentially sensitive environment variable value is logged.
func MaskSensitiveValue(value string) string {
	if strings.HasPrefix(value, "postgres://") || strings.HasPrefix(value, "postgresql://") {
		parsed, err := url.Parse(value)
		if err != nil {
			return "invalid-url"
		}
		if parsed.User == nil {
			return value
		}
		if _, hasPassword := parsed.User.Password(); !hasPassword {
			return value
		}
		// url.URL.String would percent-encode the mask, so splice it in.
		user := url.User(parsed.User.Username()).String()
		parsed.User = nil
		prefix := parsed.Scheme + "://"
		return prefix + user + ":****@" + strings.TrimPrefix(parsed.String(), prefix)
	}

	// For non-database URL values that might contain tokens or keys
	if len(value) > 8 && (strings.Contains(value, "key") ||
		strings.Contains(value, "token") ||
		strings.Contains(value, "secret") ||
		strings.Contains(value, "password")) {
		return value[:4] + "****" + value[len(value)-4:]
	}

	return value
}
