package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"promo-video-server/modules/common/config"
	"promo-video-server/modules/common/jobstore"
	commonredis "promo-video-server/modules/common/redis"
	"promo-video-server/modules/productvideo"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 개발용 - 모든 origin 허용
		// 프로덕션에서는 특정 도메인만 허용하도록 수정
		return true
	},
}

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "promo-video-server",
	})
}

// Job 진행 상황 WebSocket 핸들러
// /ws?job=<jobId> 로 접속하면 해당 Job의 상태 변화를 실시간으로 받는다
func handleJobProgress(store *jobstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.URL.Query().Get("job")
		if jobID == "" {
			http.Error(w, "missing job parameter", http.StatusBadRequest)
			return
		}

		updates, unsubscribe := store.Subscribe(jobID)
		if updates == nil {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			unsubscribe()
			return
		}
		defer conn.Close()
		defer unsubscribe()

		log.Printf("🔍 New progress subscriber - Job: %s", jobID)

		// 현재 상태를 먼저 전송
		if job, ok := store.Get(jobID); ok {
			if err := conn.WriteJSON(job); err != nil {
				return
			}
		}

		for update := range updates {
			if err := conn.WriteJSON(update); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}
		}
	}
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	videoConfig := productvideo.LoadConfig()

	// Job 레지스트리 (메모리 전용)
	store := jobstore.NewStore()

	// Redis Queue Worker 시작 (백그라운드, 한 번에 한 건만 처리)
	go productvideo.StartWorker(store)

	// 핸들러용 Redis 연결
	rdb := commonredis.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
	}
	queue := productvideo.NewRedisQueue(rdb)

	handler := productvideo.NewHandler(store, queue, videoConfig.OutputDir)

	// 라우터 설정
	r := mux.NewRouter()

	// CORS 미들웨어 적용
	r.Use(enableCORS)

	// 라우트 설정
	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ws", handleJobProgress(store))
	handler.RegisterRoutes(r)

	port := cfg.Port

	log.Printf("🚀 Promo Video Server starting on port %s", port)
	log.Printf("📡 Progress WebSocket: ws://localhost:%s/ws?job=<jobId>", port)
	log.Printf("❤️  Health check: http://localhost:%s/health", port)
	log.Printf("🎬 Generate endpoint: http://localhost:%s/api/product-video/generate", port)

	// 서버 시작
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
