package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task.
	// Returns ErrTaskTitleExists if another task already uses the title.
	// Returns ErrInvalidEntity if the owner does not exist or the task fails validation.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetByTitle retrieves a task by its exact title.
	// Returns ErrTaskNotFound if no task has that title.
	GetByTitle(ctx context.Context, title string) (*domain.Task, error)

	// ListAll returns every task with its owner's public details populated.
	ListAll(ctx context.Context) ([]*domain.Task, error)

	// ListByOwner returns the tasks owned by ownerID.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// Update persists the mutable fields of task: title, description,
	// status, completion time and the updated timestamp.
	// Returns ErrTaskNotFound if the task does not exist.
	// Returns ErrTaskTitleExists if the new title collides with another task.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByStatus returns the number of tasks per status.
	// Statuses without tasks are absent from the map.
	CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error)

	// CountByOwner returns the number of tasks per owner.
	CountByOwner(ctx context.Context) (map[uuid.UUID]int, error)

	// AverageCompletionHours returns the mean number of hours between
	// creation and completion over completed tasks, or 0 if there are none.
	AverageCompletionHours(ctx context.Context) (float64, error)
}
