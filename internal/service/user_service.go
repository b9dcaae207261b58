package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/store"
)

// UserDeletedMessage is the confirmation shown after a user is removed.
const UserDeletedMessage = "User deleted successfully"

// UserService provides user administration and self-service profile updates.
type UserService interface {
	// List returns every user ordered by creation time.
	List(ctx context.Context) ([]*domain.User, error)

	// Get retrieves a user by their ID
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// UpdateProfile applies the fields present in patch.
	// Note: the full user is loaded first and passed back to the store, which
	// re-hashes a changed password.
	UpdateProfile(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error)

	// Delete removes the user; their tasks go with them.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userStore store.UserStore, log *slog.Logger) UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		logger:    log.With("component", "user_service"),
	}
}

// List retrieves all users
func (s *UserServiceImpl) List(ctx context.Context) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	users, err := s.userStore.List(ctx)
	if err != nil {
		log.Error("failed to list users", redact.ErrorAttr(err))
		return nil, NewServiceError("list_users", "Failed to fetch users", err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// Get retrieves a user by their ID
func (s *UserServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("user not found", "user_id", id)
			return nil, ErrUserNotFound
		}
		log.Error("failed to retrieve user",
			redact.ErrorAttr(err),
			"user_id", id)
		return nil, NewServiceError("get_user", "Failed to fetch user", err)
	}

	return user, nil
}

// UpdateProfile follows the pattern of getting the complete user first,
// then updating the requested fields. An empty patch returns the user
// unchanged without writing.
func (s *UserServiceImpl) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	patch domain.UserPatch,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		log.Error("failed to retrieve user for update",
			redact.ErrorAttr(err),
			"user_id", id)
		return nil, NewServiceError("update_user", "Failed to update user", err)
	}

	if patch.IsEmpty() {
		return user, nil
	}

	if patch.Email != nil {
		email := domain.NormalizeEmail(*patch.Email)
		if email != user.Email {
			existing, err := s.userStore.GetByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, ErrEmailTaken
			case err != nil && !store.IsNotFoundError(err):
				log.Error("failed to check email availability", redact.ErrorAttr(err))
				return nil, NewServiceError("update_user", "Failed to update user", err)
			}
		}
	}

	user.Apply(patch)
	if err := user.Validate(); err != nil {
		return nil, domain.AsValidationError(err)
	}

	if err := s.userStore.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrEmailExists):
			return nil, ErrEmailTaken
		case errors.Is(err, store.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		log.Error("failed to update user",
			redact.ErrorAttr(err),
			"user_id", id)
		return nil, NewServiceError("update_user", "Failed to update user", err)
	}

	log.Info("user profile updated", "user_id", id)
	return user, nil
}

// Delete deletes a user by their ID
func (s *UserServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.userStore.Delete(ctx, id); err != nil {
		if store.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		log.Error("failed to delete user",
			redact.ErrorAttr(err),
			"user_id", id)
		return NewServiceError("delete_user", "Failed to delete user", err)
	}

	log.Info("user deleted", "user_id", id)
	return nil
}
