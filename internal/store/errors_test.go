package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "ErrUserNotFound", err: ErrUserNotFound, expected: true},
		{name: "ErrTaskNotFound", err: ErrTaskNotFound, expected: true},
		{
			name:     "wrapped ErrTaskNotFound",
			err:      fmt.Errorf("failed to find task: %w", ErrTaskNotFound),
			expected: true,
		},
		{name: "duplicate is not not-found", err: ErrEmailExists, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestDuplicateErrorsWrapErrDuplicate(t *testing.T) {
	assert.True(t, errors.Is(ErrEmailExists, ErrDuplicate))
	assert.True(t, errors.Is(fmt.Errorf("failed to create task: %w", ErrTaskTitleExists), ErrDuplicate))
	assert.False(t, errors.Is(ErrUserNotFound, ErrDuplicate))
}

func TestEntitySpecificErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrUserNotFound, ErrTaskNotFound))
	assert.False(t, errors.Is(ErrEmailExists, ErrTaskTitleExists))
	assert.Equal(t, "entity not found: task", ErrTaskNotFound.Error())
	assert.Equal(t, "entity already exists: email", ErrEmailExists.Error())
}

func TestStoreError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("task", "update", "database error", originalErr)

	assert.Equal(t,
		"update operation on task failed: database error: database connection failed",
		storeErr.Error())
	assert.Equal(t, originalErr, storeErr.Unwrap())
	assert.True(t, errors.Is(storeErr, originalErr))

	var target *StoreError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", storeErr), &target))
	assert.Equal(t, "task", target.Entity)

	internal := NewStoreError("user", "list", "database failure", ErrInternal)
	assert.True(t, errors.Is(internal, ErrInternal))
	assert.False(t, IsNotFoundError(internal))

	bare := &StoreError{Entity: "user", Operation: "create", Message: "validation failed"}
	assert.Equal(t, "create operation on user failed: validation failed", bare.Error())
}
