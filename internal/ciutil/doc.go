// Package ciutil provides utilities for CI and environment-specific functionality.
//
// It centralizes the environment variable names the project reads, CI
// detection, and masking of credentials in values that end up in logs.
package ciutil
