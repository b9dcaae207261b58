package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tasks-api/internal/platform/postgres"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "duplicate key value violates unique constraint",
		Detail:         "Key (email)=(amit@x.com) already exists.",
		TableName:      "users",
		ColumnName:     "email",
		ConstraintName: "users_email_key",
	}
}

type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, m.err }
func (m mockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{name: "no rows", err: sql.ErrNoRows, target: store.ErrNotFound},
		{name: "unique", err: newPgError("23505"), target: store.ErrDuplicate},
		{name: "foreign key", err: newPgError("23503"), target: store.ErrInvalidEntity},
		{name: "check", err: newPgError("23514"), target: store.ErrInvalidEntity},
		{name: "not null", err: newPgError("23502"), target: store.ErrInvalidEntity},
		{name: "wrapped unique", err: fmt.Errorf("exec: %w", newPgError("23505")), target: store.ErrDuplicate},
		{name: "unmapped", err: plain, target: plain},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, postgres.MapError(tt.err), tt.target)
		})
	}

	assert.NoError(t, postgres.MapError(nil))
}

func TestConstraintClassifiers(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505")))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.False(t, postgres.IsUniqueViolation(nil))
	assert.False(t, postgres.IsUniqueViolation(errors.New("23505")))

	assert.True(t, postgres.IsForeignKeyViolation(newPgError("23503")))
	assert.False(t, postgres.IsForeignKeyViolation(newPgError("23505")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(mockResult{rowsAffected: 1}, "task"))

	err := postgres.CheckRowsAffected(mockResult{rowsAffected: 0}, "task")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "task not found")

	assert.Equal(t, store.ErrNotFound, postgres.CheckRowsAffected(mockResult{}, ""))

	err = postgres.CheckRowsAffected(mockResult{err: errors.New("driver")}, "task")
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)

	assert.Error(t, postgres.CheckRowsAffected(nil, "task"))
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	pgErr := newPgError("23505")

	err := postgres.MapUniqueViolation(pgErr, "user", "users_email_key", store.ErrEmailExists)
	assert.Equal(t, store.ErrEmailExists, err)

	err = postgres.MapUniqueViolation(pgErr, "task", "", nil)
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.Contains(t, err.Error(), "task already exists")
	assert.NotContains(t, err.Error(), "amit@x.com")

	err = postgres.MapUniqueViolation(pgErr, "", "tasks_title_key", nil)
	assert.Contains(t, err.Error(), "tasks_title_key")

	other := errors.New("other")
	assert.Equal(t, other, postgres.MapUniqueViolation(other, "user", "", store.ErrEmailExists))
}
