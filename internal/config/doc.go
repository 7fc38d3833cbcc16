// Package config loads ephemeraldb settings from defaults, an optional config
// file, EPHEMERALDB_* environment variables, and command-line flags, in
// increasing order of precedence, and validates the result.
package config
