package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	ctx := SetTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, TraceIDLength*2)

	other := GetTraceID(SetTraceID(context.Background()))
	assert.NotEqual(t, traceID, other)

	assert.Empty(t, GetTraceID(context.Background()))
	assert.Equal(t, "abc", GetTraceID(WithTraceID(context.Background(), "abc")))
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	_, ok = IdentityFromContext(WithIdentity(context.Background(), domain.Identity{}))
	assert.False(t, ok, "zero identity must not count as authenticated")

	want := domain.Identity{UserID: uuid.New(), Email: "a@example.com", Role: domain.RoleAdmin}
	got, ok := IdentityFromContext(WithIdentity(context.Background(), want))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

type sampleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"  validate:"omitempty,min=2"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"email":"a@example.com"}`},
		{name: "unknown field", body: `{"email":"a@example.com","admin":true}`, wantErr: `property "admin" should not exist`},
		{name: "malformed", body: `{"email":`, wantErr: "malformed JSON"},
		{name: "empty", body: ``, wantErr: "empty body"},
		{name: "wrong type", body: `{"email":42}`, wantErr: "field email has the wrong type"},
		{name: "trailing data", body: `{"email":"a@example.com"}{"x":1}`, wantErr: "unexpected data"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst sampleRequest
			err := DecodeJSON(req, &dst)

			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "a@example.com", dst.Email)
				return
			}
			require.ErrorIs(t, err, ErrInvalidJSON)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateRequestUsesJSONNames(t *testing.T) {
	t.Parallel()

	err := ValidateRequest(&sampleRequest{Email: "nope", Name: "x"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "email", verrs[0].Field())
	assert.Equal(t, "name", verrs[1].Field())
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/tasks/123", nil)
	req = req.WithContext(WithTraceID(req.Context(), "trace-1"))
	rec := httptest.NewRecorder()

	RespondWithErrorAndLog(rec, req, http.StatusNotFound, "Task not found", errors.New("sql: no rows"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(http.StatusNotFound), body["statusCode"])
	assert.Equal(t, "Task not found", body["message"])
	assert.Equal(t, "/tasks/123", body["path"])
	assert.Equal(t, "trace-1", body["traceId"])

	ts, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)

	assert.NotContains(t, rec.Body.String(), "sql")
}
