package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/platform/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedisURL() string {
	if url := os.Getenv("TASKS_TEST_REDIS_URL"); url != "" {
		return url
	}
	return "redis://localhost:6379/15"
}

func TestLimiter_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	client, err := redis.Connect(ctx, testRedisURL())
	if err != nil {
		t.Skipf("Skipping redis test: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	limiter := redis.NewLimiter(client, "tasks-api:test:"+uuid.NewString()+":")
	key := "127.0.0.1"

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 3-i-1, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.True(t, res.ResetAt.After(time.Now()))

	other, err := limiter.Allow(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are limited independently")
}

// recordingScripter answers script calls with a fixed reply and records the
// keys it was given.
type recordingScripter struct {
	goredis.Scripter
	keys  []string
	reply []interface{}
}

func (r *recordingScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...interface{}) *goredis.Cmd {
	r.keys = keys
	cmd := goredis.NewCmd(ctx)
	cmd.SetVal(r.reply)
	return cmd
}

func (r *recordingScripter) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *goredis.Cmd {
	return r.EvalSha(ctx, "", keys, args...)
}

func TestLimiter_DeclaresAllScriptKeys(t *testing.T) {
	t.Parallel()

	scripter := &recordingScripter{reply: []interface{}{int64(1), int64(4), int64(0)}}
	limiter := redis.NewLimiter(scripter, "tasks-api:ratelimit:")

	res, err := limiter.Allow(context.Background(), "auth:10.0.0.1", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)

	assert.Equal(t, []string{
		"tasks-api:ratelimit:{auth:10.0.0.1}",
		"tasks-api:ratelimit:{auth:10.0.0.1}:counter",
	}, scripter.keys)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := redis.Connect(context.Background(), "not-a-redis-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis URL")
}

func TestResult_RetryAfter(t *testing.T) {
	now := time.Now()

	r := &redis.Result{ResetAt: now.Add(12*time.Second + 300*time.Millisecond)}
	assert.Equal(t, 12*time.Second, r.RetryAfter(now))

	r = &redis.Result{ResetAt: now.Add(200 * time.Millisecond)}
	assert.Equal(t, time.Second, r.RetryAfter(now))

	r = &redis.Result{ResetAt: now.Add(-time.Second)}
	assert.Equal(t, time.Second, r.RetryAfter(now))
}
