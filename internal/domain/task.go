package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus represents the progress of a task.
type TaskStatus string

// Possible task status values. TaskStatusDone is terminal.
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"

	// legacyStatusPending was accepted by older clients as the "not started" value.
	legacyStatusPending = "PENDING"
)

// MaxTitleLength bounds task titles in characters; it matches the column width.
const MaxTitleLength = 255

// Common validation errors for Task
var (
	ErrEmptyTaskID      = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwnerID = errors.New("task owner ID cannot be empty")
	ErrEmptyTaskTitle   = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong = errors.New("task title is too long")
)

// ParseTaskStatus converts a raw status string to a TaskStatus.
// "PENDING" is accepted as an alias for TODO.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch v := strings.ToUpper(strings.TrimSpace(s)); v {
	case string(TaskStatusTodo), legacyStatusPending:
		return TaskStatusTodo, nil
	case string(TaskStatusInProgress):
		return TaskStatusInProgress, nil
	case string(TaskStatusDone):
		return TaskStatusDone, nil
	default:
		return "", ErrInvalidTaskStatus
	}
}

// IsValid reports whether s is part of the canonical enumeration.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// TaskOwner is the subset of a user's identity shown alongside a task.
type TaskOwner struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Task is a unit of work owned by a single user.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	OwnerID     uuid.UUID  `json:"ownerId"`
	Owner       *TaskOwner `json:"owner,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewTask creates a task in the TODO state for ownerID.
func NewTask(ownerID uuid.UUID, title string, description *string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      TaskStatusTodo,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.OwnerID == uuid.Nil {
		return ErrEmptyTaskOwnerID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return ErrTaskTitleTooLong
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	return nil
}

// IsOwnedBy reports whether userID owns the task.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.OwnerID == userID
}

// Apply copies the fields present in the patch onto the task.
// Setting the status to DONE stamps CompletedAt with now, even when the
// task was already done. CompletedAt is never cleared.
func (t *Task) Apply(patch TaskPatch, now time.Time) {
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		t.Description = patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
		if t.Status == TaskStatusDone {
			completed := now.UTC()
			t.CompletedAt = &completed
		}
	}
	t.UpdatedAt = now.UTC()
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
}
