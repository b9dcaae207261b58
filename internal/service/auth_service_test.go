package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/mocks"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (service.AuthService, *mocks.MockUserStore, auth.JWTService) {
	t.Helper()
	users := mocks.NewMockUserStore()
	jwtService := auth.RequireTestJWTService(t)
	svc := service.NewAuthService(users, jwtService, auth.NewBcryptVerifier(), quietLogger())
	return svc, users, jwtService
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates user with default role", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)

		user, err := svc.Register(ctx, service.RegisterInput{
			Name:     "Amit",
			Email:    "Amit@Example.com",
			Password: "secret1",
		})
		require.NoError(t, err)

		assert.Equal(t, "amit@example.com", user.Email)
		assert.Equal(t, domain.RoleUser, user.Role)
		assert.Empty(t, user.Password)
		assert.NotEmpty(t, user.HashedPassword)
		assert.NotEqual(t, "secret1", user.HashedPassword)
		assert.Equal(t, user.ID, users.LastUserID)
	})

	t.Run("honours requested role", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)

		user, err := svc.Register(ctx, service.RegisterInput{
			Name: "Root", Email: "root@example.com", Password: "secret1", Role: domain.RoleAdmin,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, user.Role)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)
		in := service.RegisterInput{Name: "Amit", Email: "amit@example.com", Password: "secret1"}

		_, err := svc.Register(ctx, in)
		require.NoError(t, err)

		in.Email = "AMIT@example.com"
		_, err = svc.Register(ctx, in)
		assert.ErrorIs(t, err, service.ErrEmailTaken)
	})

	t.Run("unique violation racing past the pre-check", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)
		users.CreateFn = func(context.Context, *domain.User) error { return store.ErrEmailExists }

		_, err := svc.Register(ctx, service.RegisterInput{
			Name: "Amit", Email: "amit@example.com", Password: "secret1",
		})
		assert.ErrorIs(t, err, service.ErrEmailTaken)
	})

	t.Run("invalid input", func(t *testing.T) {
		svc, _, _ := newAuthFixture(t)

		_, err := svc.Register(ctx, service.RegisterInput{
			Name: "Amit", Email: "amit@example.com", Password: "123",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("store failure is hidden", func(t *testing.T) {
		svc, users, _ := newAuthFixture(t)
		users.CreateFn = func(context.Context, *domain.User) error {
			return errors.New("connection refused")
		}

		_, err := svc.Register(ctx, service.RegisterInput{
			Name: "Amit", Email: "amit@example.com", Password: "secret1",
		})
		var serviceErr *service.ServiceError
		require.ErrorAs(t, err, &serviceErr)
		assert.Equal(t, "Failed to register user", serviceErr.Message)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, jwtService := newAuthFixture(t)
	registered, err := svc.Register(ctx, service.RegisterInput{
		Name: "Amit", Email: "amit@example.com", Password: "secret1", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		pair, err := svc.Login(ctx, "AMIT@example.com", "secret1")
		require.NoError(t, err)

		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.WithinDuration(t, time.Now().Add(time.Hour), pair.ExpiresAt, time.Minute)

		claims, err := jwtService.ValidateToken(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, claims.UserID)
		assert.Equal(t, "amit@example.com", claims.Email)
		assert.Equal(t, domain.RoleAdmin, claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "amit@example.com", "wrong-password")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "secret1")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestAuthService_LoginTokenFailure(t *testing.T) {
	t.Parallel()

	users := mocks.NewMockUserStore()
	user, err := domain.NewUser("Amit", "amit@example.com", "secret1", domain.RoleUser)
	require.NoError(t, err)
	require.NoError(t, users.Seed(user))

	verifier := &mocks.MockPasswordVerifier{ShouldSucceed: true}
	jwtMock := &mocks.MockJWTService{Err: errors.New("signing failed")}
	svc := service.NewAuthService(users, jwtMock, verifier, quietLogger())

	_, err = svc.Login(context.Background(), "amit@example.com", "anything")
	var serviceErr *service.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "Failed to generate token", serviceErr.Message)
	assert.Equal(t, 1, verifier.CallCount())
	_, plain := verifier.LastCall()
	assert.Equal(t, "anything", plain)
}

func TestAuthService_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, users, jwtService := newAuthFixture(t)
	user, err := svc.Register(ctx, service.RegisterInput{
		Name: "Amit", Email: "amit@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "amit@example.com", "secret1")
	require.NoError(t, err)

	t.Run("reflects role changes", func(t *testing.T) {
		stored := users.Users[user.ID]
		stored.Role = domain.RoleAdmin

		refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)

		claims, err := jwtService.ValidateToken(ctx, refreshed.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, claims.Role)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, auth.ErrWrongTokenType)
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost := &domain.User{ID: uuid.New(), Email: "ghost@example.com", Role: domain.RoleUser}
		token, err := jwtService.GenerateRefreshToken(ctx, ghost)
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, token.Token)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})
}
