// Package store defines the persistence contracts for users and tasks and
// the sentinel errors every implementation returns. Services depend only on
// these interfaces; internal/platform/postgres provides the production
// implementation and internal/mocks the test doubles.
package store
