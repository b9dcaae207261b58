// Package postgres implements the internal/store interfaces on PostgreSQL
// through database/sql and the pgx driver. It maps pgx constraint errors to
// store sentinels and owns the embedded goose schema migrations.
package postgres
