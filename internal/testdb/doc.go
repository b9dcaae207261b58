// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database: connection setup from the environment, schema
// migration with the embedded goose migrations, and per-test transactions
// that are always rolled back.
//
// Tests using this package should carry the `integration` build tag and call
// GetTestDB, which skips the test when no database URL is configured.
package testdb
