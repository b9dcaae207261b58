package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/phrazzld/tasks-api/internal/store"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// TokenPair is issued on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService interface {
	// Register creates a user. Returns ErrEmailTaken when the email is in use.
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)

	// Login verifies credentials and issues a token pair.
	// Unknown emails and wrong passwords both return ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*TokenPair, error)

	// Refresh exchanges a valid refresh token for a new pair. The user is
	// reloaded so role changes apply to the new tokens.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type authService struct {
	users    store.UserStore
	jwt      auth.JWTService
	verifier auth.PasswordVerifier
	logger   *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	users store.UserStore,
	jwtService auth.JWTService,
	verifier auth.PasswordVerifier,
	log *slog.Logger,
) AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &authService{
		users:    users,
		jwt:      jwtService,
		verifier: verifier,
		logger:   log.With("component", "auth_service"),
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	existing, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		log.Debug("registration rejected: email already in use")
		return nil, ErrEmailTaken
	case err != nil && !store.IsNotFoundError(err):
		log.Error("failed to check email availability", redact.ErrorAttr(err))
		return nil, NewServiceError("register", "Failed to register user", err)
	}

	user, err := domain.NewUser(in.Name, in.Email, in.Password, in.Role)
	if err != nil {
		return nil, domain.AsValidationError(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("registration lost race on unique email")
			return nil, ErrEmailTaken
		}
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		log.Error("failed to create user", redact.ErrorAttr(err))
		return nil, NewServiceError("register", "Failed to register user", err)
	}

	log.Info("user registered",
		"user_id", user.ID,
		"role", user.Role)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("login failed: unknown email")
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to load user for login", redact.ErrorAttr(err))
		return nil, NewServiceError("login", "Failed to log in", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login failed: password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info("user logged in", "user_id", user.ID)
	return pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	claims, err := s.jwt.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		log.Debug("refresh rejected", "reason", err.Error())
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("refresh rejected: user no longer exists", "user_id", claims.UserID)
			return nil, auth.ErrInvalidRefreshToken
		}
		log.Error("failed to load user for refresh", redact.ErrorAttr(err))
		return nil, NewServiceError("refresh", "Failed to refresh token", err)
	}

	return s.issue(ctx, user)
}

func (s *authService) issue(ctx context.Context, user *domain.User) (*TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	access, err := s.jwt.GenerateToken(ctx, user)
	if err != nil {
		log.Error("failed to generate access token", redact.ErrorAttr(err), "user_id", user.ID)
		return nil, NewServiceError("issue_tokens", "Failed to generate token", err)
	}

	refresh, err := s.jwt.GenerateRefreshToken(ctx, user)
	if err != nil {
		log.Error("failed to generate refresh token", redact.ErrorAttr(err), "user_id", user.ID)
		return nil, NewServiceError("issue_tokens", "Failed to generate token", err)
	}

	return &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		ExpiresAt:    access.ExpiresAt,
	}, nil
}
