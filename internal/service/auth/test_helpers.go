package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/stretchr/testify/require"
)

// DefaultJWTConfig returns a standard configuration for JWT authentication suitable for testing.
func DefaultJWTConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   "test-jwt-secret-that-is-32-chars-long",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
		BCryptCost:                  4,
	}
}

// RequireTestJWTService creates a test JWT service and uses require to handle errors.
func RequireTestJWTService(t *testing.T, opts ...Option) JWTService {
	t.Helper()
	service, err := NewJWTService(DefaultJWTConfig(), opts...)
	require.NoError(t, err, "Failed to create test JWT service")
	return service
}

// TestUser returns a user with a fresh ID suitable for signing tokens.
func TestUser(role domain.Role) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:             uuid.New(),
		Name:           "Test User",
		Email:          "test-" + uuid.NewString()[:8] + "@example.com",
		HashedPassword: "unused",
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// GenerateAuthHeaderForTestingT creates an Authorization header value with
// Bearer prefix for the user and fails the test if token generation fails.
func GenerateAuthHeaderForTestingT(t *testing.T, svc JWTService, user *domain.User) string {
	t.Helper()
	token, err := svc.GenerateToken(context.Background(), user)
	require.NoError(t, err, "Failed to generate auth header")
	return "Bearer " + token.Token
}
