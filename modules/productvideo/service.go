package productvideo

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/genai"

	"promo-video-server/modules/common/config"
	"promo-video-server/modules/common/storage"
	"promo-video-server/modules/common/utils"
)

// ProgressFunc - 파이프라인 진행 상황 통지 콜백
type ProgressFunc func(message string)

// VideoDescriptor - 생성된 비디오 한 건의 디스크립터
type VideoDescriptor struct {
	URI        string
	MIMEType   string
	VideoBytes []byte
}

// Operation - 장시간 실행 작업 스냅샷 (SDK 타입과 분리)
type Operation struct {
	Name        string
	Done        bool
	HasResponse bool
	Error       string
	Videos      []VideoDescriptor

	raw *genai.GenerateVideosOperation
}

// referenceAsset - Veo에 전달할 정규화된 레퍼런스 이미지
type referenceAsset struct {
	Data     []byte
	MIMEType string
}

// videoAPI - Veo 호출 추상화 (테스트에서 fake로 교체)
type videoAPI interface {
	StartGeneration(ctx context.Context, model, prompt string, params *GenerateVideoParams, refs []referenceAsset) (*Operation, error)
	PollGeneration(ctx context.Context, op *Operation) (*Operation, error)
	FetchVideo(ctx context.Context, uri string) ([]byte, error)
}

// Service - 비디오 생성 파이프라인 (제출 → 폴링 → 검증 → 다운로드 → 저장)
type Service struct {
	api     videoAPI
	cfg     *Config
	storage *storage.Client
}

// NewService - Gemini API 기반 서비스 생성
func NewService(ctx context.Context) (*Service, error) {
	api, err := newGenaiVideoAPI(ctx)
	if err != nil {
		return nil, err
	}
	return &Service{
		api:     api,
		cfg:     LoadConfig(),
		storage: storage.NewClient(),
	}, nil
}

// GenerateVideo - 파이프라인 전체 실행
// ctx 취소 시 즉시 중단하고 ctx.Err()를 반환한다
func (s *Service) GenerateVideo(ctx context.Context, jobID string, params *GenerateVideoParams, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(string) {}
	}

	model := params.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	// 1. 프롬프트 생성 (결정적)
	prompt := BuildPrompt(params)
	log.Printf("🚀 Starting video generation for job %s (model: %s)", jobID, model)
	log.Printf("📝 Prompt (%d chars): %s", len(prompt), prompt)

	// 2. 레퍼런스 이미지 정규화 (읽을 수 없는 이미지는 스킵)
	refs := prepareReferences(params.Images)
	if len(params.Images) > 0 && len(refs) == 0 {
		return nil, fmt.Errorf("no usable reference images (%d supplied)", len(params.Images))
	}

	// 3. 생성 요청 제출
	progress("Submitting generation request")
	op, err := s.api.StartGeneration(ctx, model, prompt, params, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to start video generation: %w", err)
	}
	log.Printf("⏳ Operation started: %s", op.Name)

	// 4. 완료까지 폴링 (간격/횟수 상한 고정, ctx 취소 시 즉시 종료)
	op, err = s.pollUntilDone(ctx, op, progress)
	if err != nil {
		return nil, err
	}

	// 5. 결과 검증
	video, err := validateOperation(op)
	if err != nil {
		return nil, err
	}

	// 6. 비디오 바이트 확보 (인라인 바이트가 없으면 URI에서 다운로드)
	videoData := video.VideoBytes
	if len(videoData) == 0 {
		progress("Downloading generated video")
		log.Printf("📥 Fetching video from: %s", video.URI)
		videoData, err = s.api.FetchVideo(ctx, video.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch generated video: %w", err)
		}
	}
	if len(videoData) == 0 {
		return nil, fmt.Errorf("generated video is empty")
	}

	// 7. 로컬 저장
	fileName := fmt.Sprintf("product_video_%s.mp4", jobID)
	videoPath, err := s.writeVideoFile(fileName, videoData)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Video saved: %s (%d bytes)", videoPath, len(videoData))

	// 8. Storage 업로드 (선택, 실패해도 파이프라인은 성공)
	if s.storage != nil {
		if _, err := s.storage.UploadVideo(ctx, videoData, jobID); err != nil {
			log.Printf("⚠️  Storage upload failed (ignored): %v", err)
		}
	}

	return &Result{
		VideoPath: videoPath,
		VideoURL:  "/videos/" + fileName,
		RemoteURI: video.URI,
		SizeBytes: int64(len(videoData)),
	}, nil
}

// pollUntilDone - 고정 간격 폴링 루프
// MaxPollAttempts 초과 시 타임아웃 에러 반환
func (s *Service) pollUntilDone(ctx context.Context, op *Operation, progress ProgressFunc) (*Operation, error) {
	attempts := 0
	for !op.Done {
		if attempts >= s.cfg.MaxPollAttempts {
			return nil, fmt.Errorf("video generation timed out after %d polls (%s apart)",
				attempts, s.cfg.PollInterval)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.cfg.PollInterval):
		}

		next, err := s.api.PollGeneration(ctx, op)
		if err != nil {
			return nil, fmt.Errorf("failed to poll operation %s: %w", op.Name, err)
		}
		op = next
		attempts++
		log.Printf("⏳ Poll %d/%d: operation %s done=%v", attempts, s.cfg.MaxPollAttempts, op.Name, op.Done)
		progress(fmt.Sprintf("Generating video... (poll %d/%d)", attempts, s.cfg.MaxPollAttempts))
	}
	return op, nil
}

// validateOperation - 완료된 작업의 결과 검증, 첫 번째 비디오 디스크립터 반환
func validateOperation(op *Operation) (*VideoDescriptor, error) {
	if op.Error != "" {
		return nil, fmt.Errorf("video generation failed: %s", op.Error)
	}
	if !op.HasResponse {
		log.Printf("❌ Operation %s finished without a response: %+v", op.Name, op.raw)
		return nil, fmt.Errorf("operation finished without a response")
	}
	if len(op.Videos) == 0 {
		return nil, fmt.Errorf("no videos generated")
	}

	video := op.Videos[0]
	if video.URI == "" && len(video.VideoBytes) == 0 {
		return nil, fmt.Errorf("generated video has no retrieval URI")
	}
	return &video, nil
}

// prepareReferences - base64 이미지를 디코딩 후 Veo 입력 포맷으로 정규화
// 깨진 이미지는 로깅 후 스킵
func prepareReferences(images []ReferenceImage) []referenceAsset {
	var refs []referenceAsset
	for i, img := range images {
		data, err := utils.DecodeBase64Image(img.Data)
		if err != nil {
			log.Printf("❌ Skipping reference image %d (%s): %v", i+1, img.FileName, err)
			continue
		}

		normalized, mimeType, err := utils.NormalizeReferenceImage(data, img.MimeType)
		if err != nil {
			log.Printf("❌ Skipping reference image %d (%s): %v", i+1, img.FileName, err)
			continue
		}

		refs = append(refs, referenceAsset{Data: normalized, MIMEType: mimeType})
	}
	return refs
}

// writeVideoFile - 출력 디렉토리에 MP4 저장
func (s *Service) writeVideoFile(fileName string, videoData []byte) (string, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	videoPath := filepath.Join(s.cfg.OutputDir, fileName)
	if err := os.WriteFile(videoPath, videoData, 0644); err != nil {
		return "", fmt.Errorf("failed to write video file: %w", err)
	}
	return videoPath, nil
}

// --- Gemini API 구현 ---

type genaiVideoAPI struct {
	client     *genai.Client
	apiKey     string
	httpClient *http.Client
}

func newGenaiVideoAPI(ctx context.Context) (*genaiVideoAPI, error) {
	cfg := config.GetConfig()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &genaiVideoAPI{
		client: client,
		apiKey: cfg.GeminiAPIKey,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
	}, nil
}

func (g *genaiVideoAPI) StartGeneration(ctx context.Context, model, prompt string, params *GenerateVideoParams, refs []referenceAsset) (*Operation, error) {
	videoConfig := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    params.AspectRatio,
		Resolution:     params.Resolution,
	}

	for _, ref := range refs {
		videoConfig.ReferenceImages = append(videoConfig.ReferenceImages, &genai.VideoGenerationReferenceImage{
			Image: &genai.Image{
				ImageBytes: ref.Data,
				MIMEType:   ref.MIMEType,
			},
			ReferenceType: genai.VideoGenerationReferenceTypeAsset,
		})
	}
	log.Printf("📎 Attached %d reference image(s) to request", len(videoConfig.ReferenceImages))

	op, err := g.client.Models.GenerateVideos(ctx, model, prompt, nil, videoConfig)
	if err != nil {
		return nil, err
	}
	return fromGenaiOperation(op), nil
}

func (g *genaiVideoAPI) PollGeneration(ctx context.Context, op *Operation) (*Operation, error) {
	if op.raw == nil {
		return nil, fmt.Errorf("operation %s has no underlying handle", op.Name)
	}

	next, err := g.client.Operations.GetVideosOperation(ctx, op.raw, nil)
	if err != nil {
		return nil, err
	}
	return fromGenaiOperation(next), nil
}

// FetchVideo - 생성된 비디오 다운로드
// 크레덴셜은 URL이 아닌 헤더로 전달 (로그/히스토리에 키 노출 방지)
func (g *genaiVideoAPI) FetchVideo(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("video download failed with status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// fromGenaiOperation - SDK 작업 객체를 내부 스냅샷으로 변환
func fromGenaiOperation(raw *genai.GenerateVideosOperation) *Operation {
	out := &Operation{
		Name: raw.Name,
		Done: raw.Done,
		raw:  raw,
	}
	if raw.Error != nil {
		out.Error = fmt.Sprintf("%v", raw.Error)
	}
	if raw.Response != nil {
		out.HasResponse = true
		for _, v := range raw.Response.GeneratedVideos {
			if v == nil || v.Video == nil {
				continue
			}
			out.Videos = append(out.Videos, VideoDescriptor{
				URI:        v.Video.URI,
				MIMEType:   v.Video.MIMEType,
				VideoBytes: v.Video.VideoBytes,
			})
		}
	}
	return out
}
