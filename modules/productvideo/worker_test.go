package productvideo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-video-server/modules/common/jobstore"
)

func newTestQueue(t *testing.T) (*RedisQueue, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisQueue(rdb), rdb
}

func TestRedisQueueEnqueue(t *testing.T) {
	queue, rdb := newTestQueue(t)
	ctx := context.Background()

	pos, err := queue.Enqueue(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pos)

	pos, err = queue.Enqueue(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	// 워커는 BRPOP으로 소비 → 먼저 들어간 Job이 먼저 나와야 함
	result, err := rdb.BRPop(ctx, time.Second, QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, "job-1", result[1])

	result, err = rdb.BRPop(ctx, time.Second, QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, "job-2", result[1])
}

func TestProcessJob(t *testing.T) {
	t.Run("completes job and records result", func(t *testing.T) {
		store := jobstore.NewStore()
		api := &fakeVideoAPI{
			startOp: &Operation{Name: "op-1", Done: true, HasResponse: true, Videos: []VideoDescriptor{
				{URI: "https://videos.example/op-1.mp4"},
			}},
			fetchData: []byte("mp4"),
		}
		svc := newTestService(t, api)

		params := testParams()
		store.Create("job-1", params)

		processJob(svc, store, "job-1")

		job, ok := store.Get("job-1")
		require.True(t, ok)
		assert.Equal(t, jobstore.StatusCompleted, job.Status)
		assert.Equal(t, "/videos/product_video_job-1.mp4", job.VideoURL)
		assert.Equal(t, int64(3), job.SizeBytes)
	})

	t.Run("records pipeline failure", func(t *testing.T) {
		store := jobstore.NewStore()
		api := &fakeVideoAPI{
			startOp: &Operation{Name: "op-1", Done: true, HasResponse: true},
		}
		svc := newTestService(t, api)

		store.Create("job-2", testParams())
		processJob(svc, store, "job-2")

		job, _ := store.Get("job-2")
		assert.Equal(t, jobstore.StatusFailed, job.Status)
		assert.Contains(t, job.Error, "no videos generated")
	})

	t.Run("skips job cancelled while queued", func(t *testing.T) {
		store := jobstore.NewStore()
		api := &fakeVideoAPI{}
		svc := newTestService(t, api)

		store.Create("job-3", testParams())
		require.True(t, store.Cancel("job-3"))

		processJob(svc, store, "job-3")

		job, _ := store.Get("job-3")
		assert.Equal(t, jobstore.StatusCancelled, job.Status)
		assert.Equal(t, 0, api.pollCalls)
	})

	t.Run("rejects non-params payload", func(t *testing.T) {
		store := jobstore.NewStore()
		svc := newTestService(t, &fakeVideoAPI{})

		store.Create("job-4", "not params")
		processJob(svc, store, "job-4")

		job, _ := store.Get("job-4")
		assert.Equal(t, jobstore.StatusFailed, job.Status)
		assert.Contains(t, job.Error, "invalid job payload")
	})
}
