package productvideo

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"promo-video-server/modules/common/jobstore"
)

// Handler - 제품 비디오 HTTP 핸들러
type Handler struct {
	store    *jobstore.Store
	queue    Queue
	videoDir string
}

// NewHandler - Handler 생성
func NewHandler(store *jobstore.Store, queue Queue, videoDir string) *Handler {
	return &Handler{
		store:    store,
		queue:    queue,
		videoDir: videoDir,
	}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/product-video/generate", h.GenerateVideo).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/product-video/validate", h.ValidateForm).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/product-video/jobs/{jobId}", h.GetJob).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/product-video/jobs/{jobId}/cancel", h.CancelJob).Methods("POST", "OPTIONS")
	r.HandleFunc("/videos/{file}", h.ServeVideo).Methods("GET")
}

// GenerateVideo - POST /api/product-video/generate
// JSON(base64 이미지) 또는 multipart(파일 업로드) 모두 허용
func (h *Handler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	collector, err := h.parseGenerateRequest(r)
	if err != nil {
		if errors.Is(err, ErrTooManyImages) {
			respondJSON(w, http.StatusBadRequest, GenerateResponse{
				Success:      false,
				ErrorMessage: "Maximum 6 reference images allowed",
				ErrorCode:    ErrCodeTooManyImages,
			})
			return
		}
		respondJSON(w, http.StatusBadRequest, GenerateResponse{
			Success:      false,
			ErrorMessage: err.Error(),
			ErrorCode:    ErrCodeInvalidRequest,
		})
		return
	}

	// 제출 조건 검증 (상품명 + 이미지 1장 이상)
	if reason := collector.DisabledReason(); reason != "" {
		respondJSON(w, http.StatusBadRequest, GenerateResponse{
			Success:      false,
			ErrorMessage: reason,
			ErrorCode:    ErrCodeInvalidRequest,
		})
		return
	}

	if err := validateEnums(collector); err != nil {
		respondJSON(w, http.StatusBadRequest, GenerateResponse{
			Success:      false,
			ErrorMessage: err.Error(),
			ErrorCode:    ErrCodeInvalidRequest,
		})
		return
	}

	jobID := uuid.New().String()
	params := collector.BuildParams()
	h.store.Create(jobID, &params)

	position, err := h.queue.Enqueue(r.Context(), jobID)
	if err != nil {
		log.Printf("❌ Failed to enqueue job %s: %v", jobID, err)
		h.store.SetError(jobID, "failed to enqueue job")
		respondJSON(w, http.StatusInternalServerError, GenerateResponse{
			Success:      false,
			ErrorMessage: "failed to enqueue job",
			ErrorCode:    ErrCodeInternalError,
		})
		return
	}

	respondJSON(w, http.StatusAccepted, GenerateResponse{
		Success:       true,
		JobID:         jobID,
		Status:        jobstore.StatusPending,
		QueuePosition: position,
	})
}

// ValidateForm - POST /api/product-video/validate
// 제출 버튼 활성화 여부 + 비활성 사유를 돌려준다
func (h *Handler) ValidateForm(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ValidateResponse{
			CanSubmit: false,
			Reason:    "invalid request body",
		})
		return
	}

	imageCount := req.ImageCount
	if imageCount == 0 {
		imageCount = len(req.Images)
	}

	reason := SubmitDisabledReason(req.ProductName, imageCount)
	respondJSON(w, http.StatusOK, ValidateResponse{
		CanSubmit: reason == "",
		Reason:    reason,
	})
}

// GetJob - GET /api/product-video/jobs/{jobId}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, ok := h.store.Get(jobID)
	if !ok {
		respondJSON(w, http.StatusNotFound, GenerateResponse{
			Success:      false,
			ErrorMessage: fmt.Sprintf("job not found: %s", jobID),
			ErrorCode:    ErrCodeJobNotFound,
		})
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// CancelJob - POST /api/product-video/jobs/{jobId}/cancel
// 이미 끝난 Job은 취소되지 않는다
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	if _, ok := h.store.Get(jobID); !ok {
		respondJSON(w, http.StatusNotFound, CancelResponse{
			Success:      false,
			ErrorMessage: fmt.Sprintf("job not found: %s", jobID),
			ErrorCode:    ErrCodeJobNotFound,
		})
		return
	}

	if !h.store.Cancel(jobID) {
		respondJSON(w, http.StatusConflict, CancelResponse{
			Success:      false,
			JobID:        jobID,
			ErrorMessage: "job already finished",
			ErrorCode:    ErrCodeInvalidRequest,
		})
		return
	}

	respondJSON(w, http.StatusOK, CancelResponse{
		Success: true,
		JobID:   jobID,
	})
}

// ServeVideo - GET /videos/{file}
// 완성된 비디오 파일 서빙 (출력 디렉토리 밖 접근 차단)
func (h *Handler) ServeVideo(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]

	if file != filepath.Base(file) || !strings.HasSuffix(file, ".mp4") {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, filepath.Join(h.videoDir, file))
}

// parseGenerateRequest - 요청을 Collector로 파싱 (JSON/multipart 분기)
func (h *Handler) parseGenerateRequest(r *http.Request) (*Collector, error) {
	contentType := r.Header.Get("Content-Type")

	var collector *Collector
	var err error
	if strings.Contains(contentType, "multipart/form-data") {
		collector, err = parseMultipartRequest(r)
	} else {
		collector, err = parseJSONRequest(r)
	}
	if err != nil {
		return nil, err
	}

	applyDefaults(collector)
	return collector, nil
}

func parseJSONRequest(r *http.Request) (*Collector, error) {
	var params GenerateVideoParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	if len(params.Images) > MaxReferenceImages {
		return nil, ErrTooManyImages
	}

	return NewCollector(&params), nil
}

func parseMultipartRequest(r *http.Request) (*Collector, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	c := NewCollector(nil)
	c.ProductName = r.FormValue("productName")
	c.KeyFeatures = r.FormValue("keyFeatures")
	c.TargetAudience = r.FormValue("targetAudience")
	if v := r.FormValue("style"); v != "" {
		c.Style = v
	}
	if v := r.FormValue("model"); v != "" {
		c.Model = v
	}
	if v := r.FormValue("aspectRatio"); v != "" {
		c.AspectRatio = v
	}
	if v := r.FormValue("resolution"); v != "" {
		c.Resolution = v
	}

	files := r.MultipartForm.File["images"]
	if len(files) > MaxReferenceImages {
		return nil, ErrTooManyImages
	}

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			log.Printf("⚠️  Skipping unreadable image %s: %v", fh.Filename, err)
			continue
		}
		err = c.AddImage(fh.Filename, f)
		f.Close()
		if errors.Is(err, ErrTooManyImages) {
			return nil, err
		}
		if err != nil {
			// 읽기 실패한 이미지는 제외하고 계속 진행
			log.Printf("⚠️  Skipping unreadable image %s: %v", fh.Filename, err)
		}
	}

	return c, nil
}

// applyDefaults - 비어있는 enum 필드를 기본값으로 채움
func applyDefaults(c *Collector) {
	if c.Style == "" {
		c.Style = StyleModernMinimal
	}
	if c.Model == "" {
		c.Model = ModelVeoQuality
	}
	if c.AspectRatio == "" {
		c.AspectRatio = AspectRatioLandscape
	}
	if c.Resolution == "" {
		c.Resolution = Resolution720p
	}
}

// validateEnums - 선택 필드 값 검증
func validateEnums(c *Collector) error {
	if !IsValidStyle(c.Style) {
		return fmt.Errorf("invalid style: %q", c.Style)
	}
	if !IsValidModel(c.Model) {
		return fmt.Errorf("invalid model: %q", c.Model)
	}
	if !IsValidAspectRatio(c.AspectRatio) {
		return fmt.Errorf("invalid aspect ratio: %q", c.AspectRatio)
	}
	if !IsValidResolution(c.Resolution) {
		return fmt.Errorf("invalid resolution: %q", c.Resolution)
	}
	return nil
}

// respondJSON - JSON 응답 헬퍼
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}
