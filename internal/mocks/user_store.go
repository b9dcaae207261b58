package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// MockUserStore implements store.UserStore for testing.
// Function fields override the in-memory default behaviour, which mirrors
// the postgres store: passwords are bcrypt-hashed and emails are unique.
type MockUserStore struct {
	// Function fields for customizable behavior
	CreateFn     func(ctx context.Context, user *domain.User) error
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListFn       func(ctx context.Context) ([]*domain.User, error)
	UpdateFn     func(ctx context.Context, user *domain.User) error
	DeleteFn     func(ctx context.Context, id uuid.UUID) error

	// Data for default implementation
	Users       map[uuid.UUID]*domain.User
	LastUserID  uuid.UUID
	CreateError error

	mu       sync.RWMutex
	onDelete []func(userID uuid.UUID)
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store with initialized defaults
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		Users: make(map[uuid.UUID]*domain.User),
	}
}

// Create implements the UserStore interface
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	if m.CreateError != nil {
		return m.CreateError
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findByEmailLocked(user.Email) != nil {
		return store.ErrEmailExists
	}
	if err := hashUserPassword(user); err != nil {
		return err
	}

	stored := *user
	m.Users[user.ID] = &stored
	m.LastUserID = user.ID
	return nil
}

// GetByEmail implements the UserStore interface
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user := m.findByEmailLocked(domain.NormalizeEmail(email))
	if user == nil {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.Users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// List implements the UserStore interface
func (m *MockUserStore) List(ctx context.Context) ([]*domain.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*domain.User, 0, len(m.Users))
	for _, u := range m.Users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID.String() < users[j].ID.String()
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// Update implements the UserStore interface
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	if other := m.findByEmailLocked(user.Email); other != nil && other.ID != user.ID {
		return store.ErrEmailExists
	}
	if user.Password != "" {
		if err := hashUserPassword(user); err != nil {
			return err
		}
	}
	user.UpdatedAt = time.Now().UTC()

	stored := *user
	m.Users[user.ID] = &stored
	return nil
}

// Delete implements the UserStore interface
func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	if _, ok := m.Users[id]; !ok {
		m.mu.Unlock()
		return store.ErrUserNotFound
	}
	delete(m.Users, id)
	hooks := append([]func(uuid.UUID){}, m.onDelete...)
	m.mu.Unlock()

	for _, hook := range hooks {
		hook(id)
	}
	return nil
}

// Seed stores a user directly, hashing its plaintext password if present.
// It is meant for arranging fixtures such as ADMIN accounts.
func (m *MockUserStore) Seed(user *domain.User) error {
	if user.Password != "" {
		if err := hashUserPassword(user); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *user
	m.Users[user.ID] = &stored
	return nil
}

func (m *MockUserStore) lookup(id uuid.UUID) (*domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, false
	}
	copied := *u
	return &copied, true
}

func (m *MockUserStore) addDeleteHook(fn func(uuid.UUID)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDelete = append(m.onDelete, fn)
}

func (m *MockUserStore) findByEmailLocked(email string) *domain.User {
	for _, u := range m.Users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func hashUserPassword(user *domain.User) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	user.HashedPassword = string(hash)
	user.Password = ""
	return nil
}
