// Package migrate applies goose SQL migrations to a single database.
//
// It uses goose's Provider API rather than the package-level goose functions,
// so any number of databases can be migrated concurrently from the same
// process without sharing dialect, table name, or filesystem settings.
package migrate
