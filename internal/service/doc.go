// Package service contains the application use cases: registration and
// login, task management with ownership rules, user administration and task
// analytics. Services depend on the store interfaces, never on a concrete
// database, and translate store errors into the sentinels in errors.go.
// Unexpected failures are wrapped in *ServiceError whose Message is the only
// text that reaches clients.
package service
