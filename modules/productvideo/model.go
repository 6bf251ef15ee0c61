package productvideo

// 비디오 스타일 (폼의 4가지 선택지)
const (
	StyleModernMinimal  = "Modern & Minimal"
	StyleBoldEnergetic  = "Bold & Energetic"
	StyleElegantLuxury  = "Elegant & Luxurious"
	StylePlayfulFun     = "Playful & Fun"
)

// Veo 모델 variant
const (
	ModelVeoQuality = "veo-3.1-generate-preview"
	ModelVeoFast    = "veo-3.1-fast-generate-preview"
)

// 출력 설정
const (
	AspectRatioLandscape = "16:9"
	AspectRatioPortrait  = "9:16"

	Resolution720p  = "720p"
	Resolution1080p = "1080p"
)

// MaxReferenceImages - 레퍼런스 이미지 최대 개수
const MaxReferenceImages = 6

// 제출 불가 사유 (세 가지 케이스 고정 문구)
const (
	ReasonMissingBoth   = "Enter a product name and add at least one reference image"
	ReasonMissingName   = "Enter a product name"
	ReasonMissingImages = "Add at least one reference image"
)

// 에러 코드
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeTooManyImages  = "TOO_MANY_IMAGES"
	ErrCodeJobNotFound    = "JOB_NOT_FOUND"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

// ReferenceImage - 업로드된 레퍼런스 이미지 (base64 인코딩 상태로 유지)
type ReferenceImage struct {
	FileName string `json:"fileName,omitempty"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// GenerateVideoParams - 제출 시 한 번 만들어지는 불변 요청 객체
type GenerateVideoParams struct {
	ProductName    string           `json:"productName"`
	KeyFeatures    string           `json:"keyFeatures"`    // 줄바꿈으로 구분된 bullet
	TargetAudience string           `json:"targetAudience"`
	Style          string           `json:"style"`
	Images         []ReferenceImage `json:"images"`
	Model          string           `json:"model"`
	AspectRatio    string           `json:"aspectRatio"`
	Resolution     string           `json:"resolution"`
}

// GenerateResponse - POST /api/product-video/generate 응답
type GenerateResponse struct {
	Success       bool   `json:"success"`
	JobID         string `json:"jobId,omitempty"`
	Status        string `json:"status,omitempty"`
	QueuePosition int64  `json:"queuePosition,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	ErrorCode     string `json:"errorCode,omitempty"`
}

// ValidateRequest - POST /api/product-video/validate 요청
type ValidateRequest struct {
	ProductName string           `json:"productName"`
	ImageCount  int              `json:"imageCount"`
	Images      []ReferenceImage `json:"images,omitempty"`
}

// ValidateResponse - 제출 가능 여부 + 사유
type ValidateResponse struct {
	CanSubmit bool   `json:"canSubmit"`
	Reason    string `json:"reason,omitempty"`
}

// CancelResponse - POST /api/product-video/jobs/{jobId}/cancel 응답
type CancelResponse struct {
	Success      bool   `json:"success"`
	JobID        string `json:"jobId,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
}

// Result - 파이프라인이 반환하는 결과 핸들
type Result struct {
	VideoPath string // 로컬 파일 경로
	VideoURL  string // 서버가 서빙하는 다운로드 경로 (/videos/<file>)
	RemoteURI string // Veo가 내려준 원본 retrieval URI
	SizeBytes int64
}

// IsValidStyle - 스타일 값 검증
func IsValidStyle(style string) bool {
	switch style {
	case StyleModernMinimal, StyleBoldEnergetic, StyleElegantLuxury, StylePlayfulFun:
		return true
	}
	return false
}

// IsValidModel - 모델 variant 검증
func IsValidModel(model string) bool {
	return model == ModelVeoQuality || model == ModelVeoFast
}

// IsValidAspectRatio - 화면 비율 검증
func IsValidAspectRatio(ratio string) bool {
	return ratio == AspectRatioLandscape || ratio == AspectRatioPortrait
}

// IsValidResolution - 해상도 검증
func IsValidResolution(resolution string) bool {
	return resolution == Resolution720p || resolution == Resolution1080p
}
