package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps each to an
// HTTP status code.
var (
	// ErrEmailTaken indicates a user with the requested email already exists.
	// API layer should map this to HTTP 409 Conflict.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidCredentials indicates the email is unknown or the password is wrong.
	// The two cases are deliberately indistinguishable.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTaskTitleTaken indicates a task with the requested title already exists.
	// API layer should map this to HTTP 409 Conflict.
	ErrTaskTitleTaken = errors.New("task title already exists")

	// ErrForbidden indicates the caller is neither the owner nor an admin.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("forbidden")

	// ErrTaskNotFound indicates the task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// ForbiddenError carries an operation specific message for a denied request.
// It matches ErrForbidden with errors.Is.
type ForbiddenError struct {
	Message string
}

// Error implements the error interface for ForbiddenError.
func (e *ForbiddenError) Error() string {
	return e.Message
}

// Is reports ErrForbidden as the error's category.
func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// ServiceError wraps unexpected failures with the operation that failed and a
// message safe to show to clients. The wrapped error is for logs only.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "register")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
