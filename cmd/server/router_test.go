package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/tasks-api/internal/api"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/mocks"
	"github.com/phrazzld/tasks-api/internal/platform/redis"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApplication wires the real services, JWT and bcrypt over in-memory stores.
func newTestApplication(t *testing.T) *application {
	t.Helper()

	users := mocks.NewMockUserStore()
	app := &application{
		config: &config.Config{
			Server:    config.ServerConfig{Port: 0, LogLevel: "error", ShutdownTimeoutSeconds: 1},
			Auth:      auth.DefaultJWTConfig(),
			RateLimit: config.RateLimitConfig{AuthRequests: 100, WindowSeconds: 60},
		},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		userStore: users,
		taskStore: mocks.NewMockTaskStore(users),
	}
	require.NoError(t, app.initServices())
	return app
}

type client struct {
	t      *testing.T
	server *httptest.Server
}

func (c *client) do(method, path string, body interface{}, token string) (*http.Response, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func newClient(t *testing.T, app *application) *client {
	t.Helper()
	server := httptest.NewServer(app.setupRouter())
	t.Cleanup(server.Close)
	return &client{t: t, server: server}
}

func TestEndToEndTaskLifecycle(t *testing.T) {
	t.Parallel()

	c := newClient(t, newTestApplication(t))

	resp, body := c.do(http.MethodPost, "/auth/register", map[string]string{
		"name":     "Amit",
		"email":    "amit@x.com",
		"password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "secret1")

	resp, body = c.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    "amit@x.com",
		"password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var tokens api.AuthResponse
	require.NoError(t, json.Unmarshal(body, &tokens))
	require.NotEmpty(t, tokens.AccessToken)

	resp, body = c.do(http.MethodPost, "/tasks", map[string]string{"title": "Buy milk"}, tokens.AccessToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var task api.TaskResponse
	require.NoError(t, json.Unmarshal(body, &task))
	assert.Equal(t, "TODO", task.Status)

	resp, body = c.do(http.MethodPost, "/tasks", map[string]string{"title": "Buy milk"}, tokens.AccessToken)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	resp, body = c.do(http.MethodPut, "/tasks/"+task.ID, map[string]string{"status": "DONE"}, tokens.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &task))
	require.NotNil(t, task.CompletedAt)

	// Analytics is admin only.
	resp, _ = c.do(http.MethodGet, "/tasks/analytics/tasks", nil, tokens.AccessToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = c.do(http.MethodPost, "/auth/register", map[string]string{
		"name":     "Root",
		"email":    "root@x.com",
		"password": "secret1",
		"role":     "ADMIN",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	resp, body = c.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    "root@x.com",
		"password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var adminTokens api.AuthResponse
	require.NoError(t, json.Unmarshal(body, &adminTokens))

	resp, body = c.do(http.MethodGet, "/tasks/analytics/tasks", nil, adminTokens.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var analytics api.AnalyticsResponse
	require.NoError(t, json.Unmarshal(body, &analytics))
	assert.Equal(t, 1, analytics.StatusCounts["DONE"])
	assert.Regexp(t, `^\d+\.\d{2}$`, analytics.AvgCompletionTimeHours)

	resp, body = c.do(http.MethodDelete, "/tasks/"+task.ID, nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var msg api.MessageResponse
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Equal(t, "Task deleted successfully", msg.Message)
}

func TestRouterErrorEnvelope(t *testing.T) {
	t.Parallel()

	c := newClient(t, newTestApplication(t))

	tests := []struct {
		name    string
		method  string
		path    string
		status  int
		message string
	}{
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound, "Cannot GET /nope"},
		{"wrong method", http.MethodPatch, "/auth/login", http.StatusMethodNotAllowed, "Method not allowed"},
		{"missing token", http.MethodGet, "/tasks", http.StatusUnauthorized, "Authorization header required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := c.do(tt.method, tt.path, nil, "")
			require.Equal(t, tt.status, resp.StatusCode, string(body))

			var envelope shared.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &envelope))
			assert.False(t, envelope.Success)
			assert.Equal(t, tt.status, envelope.StatusCode)
			assert.Equal(t, tt.message, envelope.Message)
			assert.Equal(t, tt.path, envelope.Path)
			assert.NotEmpty(t, envelope.TraceID)
			assert.Equal(t, envelope.TraceID, resp.Header.Get("X-Trace-ID"))

			_, err := time.Parse(time.RFC3339, envelope.Timestamp)
			assert.NoError(t, err)
		})
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	t.Parallel()

	c := newClient(t, newTestApplication(t))

	resp, body := c.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

type denyAfter struct {
	allowed int
	calls   int
}

func (d *denyAfter) Allow(_ context.Context, _ string, limit int, _ time.Duration) (*redis.Result, error) {
	d.calls++
	return &redis.Result{
		Allowed:   d.calls <= d.allowed,
		Remaining: max(d.allowed-d.calls, 0),
		Limit:     limit,
		ResetAt:   time.Now().Add(10 * time.Second),
	}, nil
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t)
	app.limiter = &denyAfter{allowed: 1}
	c := newClient(t, app)

	creds := map[string]string{"email": "nobody@x.com", "password": "secret1"}

	resp, _ := c.do(http.MethodPost, "/auth/login", creds, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := c.do(http.MethodPost, "/auth/login", creds, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode, string(body))
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Task routes are not limited.
	resp, _ = c.do(http.MethodGet, "/tasks", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
