package jobstore

import (
	"context"
	"log"
	"sync"
	"time"
)

// Job 상태 값
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Update - 구독자에게 전달되는 진행 상황 이벤트
type Update struct {
	JobID    string `json:"jobId"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	VideoURL string `json:"videoUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Job - 메모리에만 존재하는 Job 레코드 (영속화 없음)
type Job struct {
	ID        string    `json:"jobId"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty"`
	VideoPath string    `json:"videoPath,omitempty"`
	RemoteURI string    `json:"remoteUri,omitempty"`
	SizeBytes int64     `json:"sizeBytes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type entry struct {
	job         Job
	payload     any
	cancel      context.CancelFunc
	subscribers map[chan Update]struct{}
}

// Store - Job 레지스트리 + 구독자 fan-out
type Store struct {
	mutex   sync.RWMutex
	entries map[string]*entry
}

// NewStore - Store 생성
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
	}
}

// Create - 새 Job 등록 (payload는 모듈 소유의 요청 데이터)
func (s *Store) Create(jobID string, payload any) Job {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	e := &entry{
		job: Job{
			ID:        jobID,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
		payload:     payload,
		subscribers: make(map[chan Update]struct{}),
	}
	s.entries[jobID] = e

	log.Printf("✅ Job registered: %s (total: %d)", jobID, len(s.entries))
	return e.job
}

// Get - Job 스냅샷 조회
func (s *Store) Get(jobID string) (Job, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.entries[jobID]
	if !ok {
		return Job{}, false
	}
	return e.job, true
}

// Payload - Job 생성 시 저장된 요청 데이터 조회
func (s *Store) Payload(jobID string) (any, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.entries[jobID]
	if !ok {
		return nil, false
	}
	return e.payload, true
}

// BindCancel - 실행 중인 Job의 컨텍스트 취소 함수 연결
func (s *Store) BindCancel(jobID string, cancel context.CancelFunc) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if e, ok := s.entries[jobID]; ok {
		e.cancel = cancel
	}
}

// SetStatus - 상태 전환 + 구독자 통지
func (s *Store) SetStatus(jobID, status, message string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.entries[jobID]
	if !ok {
		return
	}
	e.job.Status = status
	e.job.Message = message
	e.job.UpdatedAt = time.Now()
	s.publish(e)
}

// SetResult - 완료된 Job에 결과 기록
func (s *Store) SetResult(jobID, videoURL, videoPath, remoteURI string, sizeBytes int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.entries[jobID]
	if !ok {
		return
	}
	e.job.Status = StatusCompleted
	e.job.Message = ""
	e.job.VideoURL = videoURL
	e.job.VideoPath = videoPath
	e.job.RemoteURI = remoteURI
	e.job.SizeBytes = sizeBytes
	e.job.UpdatedAt = time.Now()
	s.publish(e)
}

// SetError - Job 실패 처리
func (s *Store) SetError(jobID, message string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.entries[jobID]
	if !ok {
		return
	}
	e.job.Status = StatusFailed
	e.job.Error = message
	e.job.UpdatedAt = time.Now()
	s.publish(e)
}

// Cancel - Job 취소 (진행 중이면 컨텍스트 취소)
// terminal 상태의 Job은 취소하지 않고 false 반환
func (s *Store) Cancel(jobID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.entries[jobID]
	if !ok {
		return false
	}

	switch e.job.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return false
	}

	log.Printf("🛑 Cancelling job: %s", jobID)
	e.job.Status = StatusCancelled
	e.job.UpdatedAt = time.Now()
	if e.cancel != nil {
		e.cancel()
	}
	s.publish(e)
	return true
}

// IsCancelled - 취소 여부 확인
func (s *Store) IsCancelled(jobID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.entries[jobID]
	return ok && e.job.Status == StatusCancelled
}

// Subscribe - Job 진행 상황 구독 (두 번째 반환값은 해지 함수)
// 모르는 Job이면 nil 채널 반환
func (s *Store) Subscribe(jobID string) (<-chan Update, func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.entries[jobID]
	if !ok {
		return nil, func() {}
	}

	ch := make(chan Update, 16)
	e.subscribers[ch] = struct{}{}

	unsubscribe := func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		if _, still := e.subscribers[ch]; still {
			delete(e.subscribers, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// publish - 구독자에게 현재 상태 전달 (mutex를 잡은 상태에서 호출)
// 느린 구독자는 이벤트를 잃는다 (버퍼 초과 시 drop)
func (s *Store) publish(e *entry) {
	update := Update{
		JobID:    e.job.ID,
		Status:   e.job.Status,
		Message:  e.job.Message,
		VideoURL: e.job.VideoURL,
		Error:    e.job.Error,
	}
	for ch := range e.subscribers {
		select {
		case ch <- update:
		default:
		}
	}
}
