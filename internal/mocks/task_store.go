package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing.
// Without function overrides it keeps tasks in memory and enforces unique
// titles, the owner foreign key and the cascade on owner deletion when it
// is linked to a MockUserStore.
type MockTaskStore struct {
	CreateFn                 func(ctx context.Context, task *domain.Task) error
	GetByIDFn                func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	GetByTitleFn             func(ctx context.Context, title string) (*domain.Task, error)
	ListAllFn                func(ctx context.Context) ([]*domain.Task, error)
	ListByOwnerFn            func(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)
	UpdateFn                 func(ctx context.Context, task *domain.Task) error
	DeleteFn                 func(ctx context.Context, id uuid.UUID) error
	CountByStatusFn          func(ctx context.Context) (map[domain.TaskStatus]int, error)
	CountByOwnerFn           func(ctx context.Context) (map[uuid.UUID]int, error)
	AverageCompletionHoursFn func(ctx context.Context) (float64, error)

	Tasks map[uuid.UUID]*domain.Task

	users *MockUserStore
	mu    sync.RWMutex
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an in-memory task store. When users is non-nil,
// owners must exist on create and deleting a user removes their tasks.
func NewMockTaskStore(users *MockUserStore) *MockTaskStore {
	m := &MockTaskStore{
		Tasks: make(map[uuid.UUID]*domain.Task),
		users: users,
	}
	if users != nil {
		users.addDeleteHook(m.deleteByOwner)
	}
	return m
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return store.ErrInvalidEntity
	}
	if m.users != nil {
		if _, ok := m.users.lookup(task.OwnerID); !ok {
			return store.ErrInvalidEntity
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findByTitleLocked(task.Title) != nil {
		return store.ErrTaskTitleExists
	}
	m.Tasks[task.ID] = cloneTask(task)
	return nil
}

// GetByID implements the TaskStore interface
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.Tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// GetByTitle implements the TaskStore interface
func (m *MockTaskStore) GetByTitle(ctx context.Context, title string) (*domain.Task, error) {
	if m.GetByTitleFn != nil {
		return m.GetByTitleFn(ctx, title)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	task := m.findByTitleLocked(title)
	if task == nil {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// ListAll implements the TaskStore interface
func (m *MockTaskStore) ListAll(ctx context.Context) ([]*domain.Task, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}

	tasks := m.filter(func(*domain.Task) bool { return true })
	if m.users != nil {
		for _, t := range tasks {
			if owner, ok := m.users.lookup(t.OwnerID); ok {
				t.Owner = &domain.TaskOwner{ID: owner.ID, Name: owner.Name, Email: owner.Email}
			}
		}
	}
	return tasks, nil
}

// ListByOwner implements the TaskStore interface
func (m *MockTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, ownerID)
	}
	return m.filter(func(t *domain.Task) bool { return t.OwnerID == ownerID }), nil
}

// Update implements the TaskStore interface
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return store.ErrInvalidEntity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	if other := m.findByTitleLocked(task.Title); other != nil && other.ID != task.ID {
		return store.ErrTaskTitleExists
	}
	task.UpdatedAt = time.Now().UTC()
	m.Tasks[task.ID] = cloneTask(task)
	return nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.Tasks, id)
	return nil
}

// CountByStatus implements the TaskStore interface
func (m *MockTaskStore) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[domain.TaskStatus]int)
	for _, t := range m.Tasks {
		counts[t.Status]++
	}
	return counts, nil
}

// CountByOwner implements the TaskStore interface
func (m *MockTaskStore) CountByOwner(ctx context.Context) (map[uuid.UUID]int, error) {
	if m.CountByOwnerFn != nil {
		return m.CountByOwnerFn(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[uuid.UUID]int)
	for _, t := range m.Tasks {
		counts[t.OwnerID]++
	}
	return counts, nil
}

// AverageCompletionHours implements the TaskStore interface
func (m *MockTaskStore) AverageCompletionHours(ctx context.Context) (float64, error) {
	if m.AverageCompletionHoursFn != nil {
		return m.AverageCompletionHoursFn(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var total time.Duration
	var n int
	for _, t := range m.Tasks {
		if t.CompletedAt == nil {
			continue
		}
		total += t.CompletedAt.Sub(t.CreatedAt)
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return total.Hours() / float64(n), nil
}

func (m *MockTaskStore) deleteByOwner(ownerID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.Tasks {
		if t.OwnerID == ownerID {
			delete(m.Tasks, id)
		}
	}
}

func (m *MockTaskStore) filter(keep func(*domain.Task) bool) []*domain.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]*domain.Task, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		if keep(t) {
			tasks = append(tasks, cloneTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID.String() < tasks[j].ID.String()
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks
}

func (m *MockTaskStore) findByTitleLocked(title string) *domain.Task {
	for _, t := range m.Tasks {
		if t.Title == title {
			return t
		}
	}
	return nil
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.Owner != nil {
		o := *t.Owner
		c.Owner = &o
	}
	return &c
}
