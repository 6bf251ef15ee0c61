package productvideo

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"promo-video-server/modules/common/config"
	"promo-video-server/modules/common/jobstore"
	commonredis "promo-video-server/modules/common/redis"
)

// QueueKey - 비디오 생성 Job 큐 (Redis list)
const QueueKey = "videojobs:queue"

// Queue - Job 등록 추상화 (테스트에서 fake로 교체)
type Queue interface {
	Enqueue(ctx context.Context, jobID string) (int64, error)
}

// RedisQueue - Redis list 기반 Queue 구현
type RedisQueue struct {
	rdb *redis.Client
}

// NewRedisQueue - RedisQueue 생성
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

// Enqueue - Job을 큐에 등록하고 현재 큐 길이(대기 순번) 반환
func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) (int64, error) {
	if err := q.rdb.LPush(ctx, QueueKey, jobID).Err(); err != nil {
		return 0, err
	}
	length, err := q.rdb.LLen(ctx, QueueKey).Result()
	if err != nil {
		return 0, err
	}
	log.Printf("📤 Job enqueued: %s (queue length: %d)", jobID, length)
	return length, nil
}

// StartWorker - 비디오 생성 워커 시작 (blocking)
// 비디오 생성은 한 번에 한 건만 처리한다 (직렬)
func StartWorker(store *jobstore.Store) {
	ctx := context.Background()

	service, err := NewService(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to create video service: %v", err)
	}

	rdb := commonredis.Connect(config.GetConfig())
	if rdb == nil {
		log.Fatal("❌ Worker requires a Redis connection")
	}

	log.Printf("🔄 Product video worker started (queue: %s)", QueueKey)

	for {
		result, err := rdb.BRPop(ctx, 5*time.Second, QueueKey).Result()
		if err == redis.Nil {
			continue // 큐 비어있음
		}
		if err != nil {
			log.Printf("❌ Queue pop failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}

		jobID := result[1]
		log.Printf("📥 Job received: %s", jobID)
		processJob(service, store, jobID)
	}
}

// processJob - Job 한 건 실행
// 취소 함수를 store에 연결해 두고 파이프라인을 돌린다
func processJob(service *Service, store *jobstore.Store, jobID string) {
	payload, ok := store.Payload(jobID)
	if !ok {
		log.Printf("❌ Unknown job in queue: %s", jobID)
		return
	}

	params, ok := payload.(*GenerateVideoParams)
	if !ok {
		store.SetError(jobID, "invalid job payload")
		return
	}

	// 대기 중에 이미 취소된 Job은 건너뜀
	if store.IsCancelled(jobID) {
		log.Printf("🛑 Skipping cancelled job: %s", jobID)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.BindCancel(jobID, cancel)

	store.SetStatus(jobID, jobstore.StatusProcessing, "Starting video generation")

	result, err := service.GenerateVideo(ctx, jobID, params, func(message string) {
		store.SetStatus(jobID, jobstore.StatusProcessing, message)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || store.IsCancelled(jobID) {
			// 상태는 Cancel()에서 이미 cancelled로 전환됨
			log.Printf("🛑 Job cancelled: %s", jobID)
			return
		}
		log.Printf("❌ Job failed: %s: %v", jobID, err)
		store.SetError(jobID, err.Error())
		return
	}

	store.SetResult(jobID, result.VideoURL, result.VideoPath, result.RemoteURI, result.SizeBytes)
	log.Printf("✅ Job completed: %s → %s (%d bytes)", jobID, result.VideoURL, result.SizeBytes)
}
