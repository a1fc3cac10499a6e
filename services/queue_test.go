package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(map[string]interface{}{"jobId": "a"})
	require.NoError(t, q.PushJob(ctx, "media-jobs", map[string]interface{}{"jobId": "b"}))

	first, err := q.PopJob(ctx, "media-jobs")
	require.NoError(t, err)
	assert.Equal(t, "a", first["jobId"])

	second, err := q.PopJob(ctx, "other-name")
	require.NoError(t, err)
	assert.Equal(t, "b", second["jobId"])

	empty, err := q.PopJob(ctx, "media-jobs")
	require.NoError(t, err)
	assert.Nil(t, empty)
	assert.Zero(t, q.Len())
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisQueue) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := DialRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisQueue(client, nil)
}

func TestRedisQueue_PopJob(t *testing.T) {
	mr, q := newTestRedis(t)
	ctx := context.Background()

	_, err := mr.RPush("media-jobs", `{"jobId":"job-1","baseDailyRateCents":10000}`)
	require.NoError(t, err)

	payload, err := q.PopJob(ctx, "media-jobs")
	require.NoError(t, err)
	assert.Equal(t, "job-1", payload["jobId"])
	assert.Equal(t, float64(10000), payload["baseDailyRateCents"])

	payload, err = q.PopJob(ctx, "media-jobs")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestRedisQueue_DropsMalformedPayloads(t *testing.T) {
	mr, q := newTestRedis(t)
	ctx := context.Background()

	for _, raw := range []string{`not json`, `[1,2,3]`, `"just a string"`, `null`} {
		_, err := mr.RPush("pricing-jobs", raw)
		require.NoError(t, err)
	}

	for i := 0; i < 4; i++ {
		payload, err := q.PopJob(ctx, "pricing-jobs")
		require.NoError(t, err)
		assert.Nil(t, payload)
	}
	assert.False(t, mr.Exists("pricing-jobs"))
}

func TestRedisQueue_PushThenPopIsFIFO(t *testing.T) {
	_, q := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, q.PushJob(ctx, "media-jobs", map[string]interface{}{"jobId": "first"}))
	require.NoError(t, q.PushJob(ctx, "media-jobs", map[string]interface{}{"jobId": "second"}))

	a, err := q.PopJob(ctx, "media-jobs")
	require.NoError(t, err)
	b, err := q.PopJob(ctx, "media-jobs")
	require.NoError(t, err)

	assert.Equal(t, "first", a["jobId"])
	assert.Equal(t, "second", b["jobId"])
}

func TestRedisQueue_ConnectionError(t *testing.T) {
	mr, q := newTestRedis(t)
	mr.Close()

	_, err := q.PopJob(context.Background(), "media-jobs")
	require.Error(t, err)
	assert.NotErrorIs(t, err, redis.Nil)
}

func TestDialRedis_InvalidURL(t *testing.T) {
	_, err := DialRedis(context.Background(), "http://not-redis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}
