package testdb

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Postgres truncates identifiers beyond 63 bytes; the 32 hex digits need room.
const maxPrefixLen = 63 - 32

var prefixPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// newDatabaseName returns prefix followed by the 128 bits of a random (v4)
// UUID as lowercase hex. The result needs no quoting, but callers quote it anyway.
func newDatabaseName(prefix string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate database name: %w", err)
	}
	return prefix + hex.EncodeToString(id[:]), nil
}

// validatePrefix checks that prefix is a lowercase identifier short enough
// to leave room for the random suffix.
func validatePrefix(prefix string) error {
	if len(prefix) > maxPrefixLen {
		return fmt.Errorf("name prefix %q is longer than %d bytes", prefix, maxPrefixLen)
	}
	if !prefixPattern.MatchString(prefix) {
		return fmt.Errorf("name prefix %q must match %s", prefix, prefixPattern)
	}
	return nil
}

// IsEphemeralName reports whether name looks like a database created by this
// package with the given prefix: the prefix followed by exactly 32 hex digits.
func IsEphemeralName(name, prefix string) bool {
	if prefix == "" {
		prefix = NamePrefix
	}
	suffix, ok := strings.CutPrefix(name, prefix)
	if !ok || len(suffix) != 32 {
		return false
	}
	_, err := hex.DecodeString(suffix)
	return err == nil && strings.ToLower(suffix) == suffix
}
