package productvideo

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"promo-video-server/modules/common/utils"
)

// ErrTooManyImages - 7번째 이미지 추가 시도
var ErrTooManyImages = errors.New("maximum of 6 reference images allowed")

// Collector - 제출 전까지의 편집 가능한 폼 상태
// 제출 시 BuildParams로 불변 GenerateVideoParams 스냅샷을 만든다
type Collector struct {
	ProductName    string
	KeyFeatures    string
	TargetAudience string
	Style          string
	Model          string
	AspectRatio    string
	Resolution     string
	Images         []ReferenceImage
}

// NewCollector - Collector 생성, prior가 있으면 해당 요청으로 시딩 (수정/재시도 플로우)
func NewCollector(prior *GenerateVideoParams) *Collector {
	c := &Collector{
		Style:       StyleModernMinimal,
		Model:       ModelVeoQuality,
		AspectRatio: AspectRatioLandscape,
		Resolution:  Resolution720p,
	}
	if prior != nil {
		c.Seed(prior)
	}
	return c
}

// Seed - 이전 요청 값으로 상태 재설정 (prior 변경 시마다 호출)
func (c *Collector) Seed(prior *GenerateVideoParams) {
	c.ProductName = prior.ProductName
	c.KeyFeatures = prior.KeyFeatures
	c.TargetAudience = prior.TargetAudience
	c.Style = prior.Style
	c.Model = prior.Model
	c.AspectRatio = prior.AspectRatio
	c.Resolution = prior.Resolution

	c.Images = make([]ReferenceImage, len(prior.Images))
	copy(c.Images, prior.Images)
}

// AddImage - 소스에서 이미지를 읽어 base64로 변환 후 목록에 추가 (최대 6장)
// 읽기 실패는 호출자가 로깅 후 무시한다 (제출 자체는 계속 가능)
func (c *Collector) AddImage(fileName string, r io.Reader) error {
	if len(c.Images) >= MaxReferenceImages {
		return ErrTooManyImages
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read image %q: %w", fileName, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("image %q is empty", fileName)
	}

	mimeType := utils.DetectImageMIME(data)
	c.Images = append(c.Images, ReferenceImage{
		FileName: fileName,
		MimeType: mimeType,
		Data:     utils.ConvertImageToBase64(data),
	})

	log.Printf("📎 Added reference image %d/%d: %s (%s, %d bytes)",
		len(c.Images), MaxReferenceImages, fileName, mimeType, len(data))
	return nil
}

// RemoveImage - 해당 인덱스의 이미지만 제거, 나머지 순서 유지
func (c *Collector) RemoveImage(index int) {
	if index < 0 || index >= len(c.Images) {
		return
	}
	c.Images = append(c.Images[:index], c.Images[index+1:]...)
}

// CanSubmit - 제출 가능 여부 (상품명 + 이미지 1장 이상)
func (c *Collector) CanSubmit() bool {
	return SubmitDisabledReason(c.ProductName, len(c.Images)) == ""
}

// DisabledReason - 제출 불가 사유 문구 (가능하면 빈 문자열)
func (c *Collector) DisabledReason() string {
	return SubmitDisabledReason(c.ProductName, len(c.Images))
}

// BuildParams - 현재 상태의 불변 스냅샷 생성
func (c *Collector) BuildParams() GenerateVideoParams {
	images := make([]ReferenceImage, len(c.Images))
	copy(images, c.Images)

	return GenerateVideoParams{
		ProductName:    c.ProductName,
		KeyFeatures:    c.KeyFeatures,
		TargetAudience: c.TargetAudience,
		Style:          c.Style,
		Model:          c.Model,
		AspectRatio:    c.AspectRatio,
		Resolution:     c.Resolution,
		Images:         images,
	}
}

// SubmitDisabledReason - 제출 비활성화 사유 (세 가지 고정 케이스)
// 제출 가능하면 빈 문자열
func SubmitDisabledReason(productName string, imageCount int) string {
	nameMissing := strings.TrimSpace(productName) == ""
	imagesMissing := imageCount == 0

	switch {
	case nameMissing && imagesMissing:
		return ReasonMissingBoth
	case nameMissing:
		return ReasonMissingName
	case imagesMissing:
		return ReasonMissingImages
	}
	return ""
}
