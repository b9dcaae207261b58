package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasks-api/internal/api/middleware"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/mocks"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

// testEnv wires the handlers to real services over in-memory stores.
type testEnv struct {
	t      *testing.T
	users  *mocks.MockUserStore
	tasks  *mocks.MockTaskStore
	jwt    auth.JWTService
	router http.Handler
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := quietLogger()
	users := mocks.NewMockUserStore()
	tasks := mocks.NewMockTaskStore(users)
	jwtService := auth.RequireTestJWTService(t)

	authHandler := NewAuthHandler(
		service.NewAuthService(users, jwtService, auth.NewBcryptVerifier(), log), log)
	taskHandler := NewTaskHandler(service.NewTaskService(tasks, log), log)
	userHandler := NewUserHandler(service.NewUserService(users, log), log)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.RefreshToken)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)
			r.With(middleware.RequireRole(domain.RoleAdmin)).Get("/analytics/tasks", taskHandler.Analytics)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Put("/me", userHandler.UpdateMe)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Get("/getAllUsers", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Delete("/{id}", userHandler.Delete)
			})
		})
	})

	return &testEnv{t: t, users: users, tasks: tasks, jwt: jwtService, router: r}
}

// seedUser stores a user with the given role and password "secret1".
func (e *testEnv) seedUser(name, email string, role domain.Role) *domain.User {
	e.t.Helper()
	user, err := domain.NewUser(name, email, "secret1", role)
	require.NoError(e.t, err)
	require.NoError(e.t, e.users.Seed(user))
	return user
}

func (e *testEnv) bearer(user *domain.User) string {
	e.t.Helper()
	return auth.GenerateAuthHeaderForTestingT(e.t, e.jwt, user)
}

// do sends a request. body may be a string (sent verbatim) or any value
// that is JSON encoded.
func (e *testEnv) do(method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeBody[shared.ErrorResponse](t, rr)
	require.False(t, resp.Success)
	require.Equal(t, rr.Code, resp.StatusCode)
	return resp.Message
}
