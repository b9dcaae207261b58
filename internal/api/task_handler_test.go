package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTask(t *testing.T, env *testEnv, header, title string) TaskResponse {
	t.Helper()
	rr := env.do(http.MethodPost, "/tasks", map[string]string{"title": title}, header)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[TaskResponse](t, rr)
}

func TestTaskHandler_Create(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := env.seedUser("Amit", "amit@x.com", domain.RoleUser)
	header := env.bearer(owner)

	rr := env.do(http.MethodPost, "/tasks", map[string]string{
		"title":       "Buy milk",
		"description": "two litres",
	}, header)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	task := decodeBody[TaskResponse](t, rr)
	assert.Equal(t, "Buy milk", task.Title)
	require.NotNil(t, task.Description)
	assert.Equal(t, "two litres", *task.Description)
	assert.Equal(t, string(domain.TaskStatusTodo), task.Status)
	assert.Equal(t, owner.ID.String(), task.OwnerID)
	assert.Nil(t, task.CompletedAt)

	t.Run("duplicate title from another user", func(t *testing.T) {
		other := env.seedUser("Bea", "bea@x.com", domain.RoleUser)
		rr := env.do(http.MethodPost, "/tasks", map[string]string{"title": "Buy milk"}, env.bearer(other))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "Task with this title already exists", errorMessage(t, rr))
	})

	t.Run("missing title", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/tasks", map[string]string{"description": "x"}, header)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "title is required")
	})

	t.Run("multibyte title", func(t *testing.T) {
		title := strings.Repeat("買", 100)
		task := createTask(t, env, header, title)
		assert.Equal(t, title, task.Title)
	})

	t.Run("owner field is not accepted", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/tasks", map[string]string{
			"title":   "Sneaky",
			"ownerId": uuid.NewString(),
		}, header)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("no token", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/tasks", map[string]string{"title": "Anon"}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Authorization header required", errorMessage(t, rr))
	})

	t.Run("token for deleted user", func(t *testing.T) {
		ghost := unstoredUser(env)
		rr := env.do(http.MethodPost, "/tasks", map[string]string{"title": "Ghost"}, env.bearer(ghost))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "User not found", errorMessage(t, rr))
	})
}

// unstoredUser returns a user that can sign tokens but does not exist in the store.
func unstoredUser(env *testEnv) *domain.User {
	user, err := domain.NewUser("Ghost", "ghost@x.com", "secret1", domain.RoleUser)
	require.NoError(env.t, err)
	return user
}

func TestTaskHandler_ListScoping(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	amit := env.seedUser("Amit", "amit@x.com", domain.RoleUser)
	bea := env.seedUser("Bea", "bea@x.com", domain.RoleUser)
	admin := env.seedUser("Root", "root@x.com", domain.RoleAdmin)

	createTask(t, env, env.bearer(amit), "Amit task")
	createTask(t, env, env.bearer(bea), "Bea task")

	rr := env.do(http.MethodGet, "/tasks", nil, env.bearer(amit))
	require.Equal(t, http.StatusOK, rr.Code)
	own := decodeBody[[]TaskResponse](t, rr)
	require.Len(t, own, 1)
	assert.Equal(t, "Amit task", own[0].Title)
	assert.Nil(t, own[0].Owner)

	rr = env.do(http.MethodGet, "/tasks", nil, env.bearer(admin))
	require.Equal(t, http.StatusOK, rr.Code)
	all := decodeBody[[]TaskResponse](t, rr)
	require.Len(t, all, 2)
	for _, task := range all {
		require.NotNil(t, task.Owner, "admin listing includes owner details")
		assert.Equal(t, task.OwnerID, task.Owner.ID)
		assert.NotEmpty(t, task.Owner.Email)
	}
	assert.NotContains(t, rr.Body.String(), "password")

	t.Run("empty list is an array", func(t *testing.T) {
		loner := env.seedUser("Cy", "cy@x.com", domain.RoleUser)
		rr := env.do(http.MethodGet, "/tasks", nil, env.bearer(loner))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})
}

func TestTaskHandler_GetAuthorization(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	amit := env.seedUser("Amit", "amit@x.com", domain.RoleUser)
	bea := env.seedUser("Bea", "bea@x.com", domain.RoleUser)
	admin := env.seedUser("Root", "root@x.com", domain.RoleAdmin)
	task := createTask(t, env, env.bearer(amit), "Private")

	tests := []struct {
		name    string
		caller  *domain.User
		path    string
		status  int
		message string
	}{
		{"owner", amit, "/tasks/" + task.ID, http.StatusOK, ""},
		{"admin", admin, "/tasks/" + task.ID, http.StatusOK, ""},
		{"stranger", bea, "/tasks/" + task.ID, http.StatusForbidden, "You are not allowed to view this task"},
		{"missing", amit, "/tasks/" + uuid.NewString(), http.StatusNotFound, "Task not found"},
		{"malformed id", amit, "/tasks/not-a-uuid", http.StatusBadRequest, "Invalid task ID format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodGet, tt.path, nil, env.bearer(tt.caller))
			assert.Equal(t, tt.status, rr.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, errorMessage(t, rr))
			}
		})
	}
}

func TestTaskHandler_Update(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	amit := env.seedUser("Amit", "amit@x.com", domain.RoleUser)
	bea := env.seedUser("Bea", "bea@x.com", domain.RoleUser)
	admin := env.seedUser("Root", "root@x.com", domain.RoleAdmin)
	task := createTask(t, env, env.bearer(amit), "Buy milk")
	createTask(t, env, env.bearer(bea), "Walk dog")
	path := "/tasks/" + task.ID

	t.Run("partial update keeps other fields", func(t *testing.T) {
		rr := env.do(http.MethodPut, path, map[string]string{"description": "semi-skimmed"}, env.bearer(amit))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		updated := decodeBody[TaskResponse](t, rr)
		assert.Equal(t, "Buy milk", updated.Title)
		assert.Equal(t, string(domain.TaskStatusTodo), updated.Status)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "semi-skimmed", *updated.Description)
	})

	t.Run("pending is accepted as todo", func(t *testing.T) {
		rr := env.do(http.MethodPut, path, map[string]string{"status": "PENDING"}, env.bearer(amit))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "TODO", decodeBody[TaskResponse](t, rr).Status)
	})

	t.Run("done stamps completion", func(t *testing.T) {
		rr := env.do(http.MethodPut, path, map[string]string{"status": "DONE"}, env.bearer(amit))
		require.Equal(t, http.StatusOK, rr.Code)
		updated := decodeBody[TaskResponse](t, rr)
		assert.Equal(t, "DONE", updated.Status)
		require.NotNil(t, updated.CompletedAt)
		assert.False(t, updated.CompletedAt.Before(updated.CreatedAt))
	})

	t.Run("admin may update any task", func(t *testing.T) {
		rr := env.do(http.MethodPut, path, map[string]string{"status": "IN_PROGRESS"}, env.bearer(admin))
		require.Equal(t, http.StatusOK, rr.Code)
		updated := decodeBody[TaskResponse](t, rr)
		assert.Equal(t, "IN_PROGRESS", updated.Status)
		assert.NotNil(t, updated.CompletedAt, "completion time is kept when reopened")
	})

	t.Run("non owner forbidden", func(t *testing.T) {
		rr := env.do(http.MethodPut, path, map[string]string{"title": "Mine now"}, env.bearer(bea))
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "You are not allowed to update this task", errorMessage(t, rr))
	})

	t.Run("title collision", func(t *testing.T) {
		rr := env.do(http.MethodPut, path, map[string]string{"title": "Walk dog"}, env.bearer(amit))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		rr := env.do(http.MethodPut, path, map[string]string{"status": "ARCHIVED"}, env.bearer(amit))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty title", func(t *testing.T) {
		rr := env.do(http.MethodPut, path, map[string]string{"title": ""}, env.bearer(amit))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing task", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/tasks/"+uuid.NewString(), map[string]string{"status": "DONE"}, env.bearer(amit))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestTaskHandler_Delete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	amit := env.seedUser("Amit", "amit@x.com", domain.RoleUser)
	bea := env.seedUser("Bea", "bea@x.com", domain.RoleUser)
	task := createTask(t, env, env.bearer(amit), "Buy milk")
	path := "/tasks/" + task.ID

	rr := env.do(http.MethodDelete, path, nil, env.bearer(bea))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "You are not allowed to delete this task", errorMessage(t, rr))

	rr = env.do(http.MethodDelete, path, nil, env.bearer(amit))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Task deleted successfully", decodeBody[MessageResponse](t, rr).Message)

	rr = env.do(http.MethodDelete, path, nil, env.bearer(amit))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Task not found", errorMessage(t, rr))
}

func TestTaskHandler_Analytics(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	amit := env.seedUser("Amit", "amit@x.com", domain.RoleUser)
	admin := env.seedUser("Root", "root@x.com", domain.RoleAdmin)

	rr := env.do(http.MethodGet, "/tasks/analytics/tasks", nil, env.bearer(admin))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	empty := decodeBody[AnalyticsResponse](t, rr)
	assert.Empty(t, empty.StatusCounts)
	assert.Equal(t, "0.00", empty.AvgCompletionTimeHours)

	done := createTask(t, env, env.bearer(amit), "Buy milk")
	createTask(t, env, env.bearer(amit), "Walk dog")
	rr = env.do(http.MethodPut, "/tasks/"+done.ID, map[string]string{"status": "DONE"}, env.bearer(amit))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodGet, "/tasks/analytics/tasks", nil, env.bearer(admin))
	require.Equal(t, http.StatusOK, rr.Code)
	analytics := decodeBody[AnalyticsResponse](t, rr)
	assert.Equal(t, 1, analytics.StatusCounts["DONE"])
	assert.Equal(t, 1, analytics.StatusCounts["TODO"])
	assert.Equal(t, 2, analytics.PerUserCounts[amit.ID.String()])
	assert.Regexp(t, `^\d+\.\d{2}$`, analytics.AvgCompletionTimeHours)

	t.Run("users are forbidden", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/tasks/analytics/tasks", nil, env.bearer(amit))
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "Forbidden resource", errorMessage(t, rr))
	})
}
