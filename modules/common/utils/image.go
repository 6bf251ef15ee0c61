package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strings"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
)

// ConvertImageToBase64 - 이미지 바이너리를 base64로 변환
func ConvertImageToBase64(imageData []byte) string {
	base64Str := base64.StdEncoding.EncodeToString(imageData)
	log.Printf("🔄 Image converted to base64: %d chars (preview: %s...)",
		len(base64Str),
		base64Str[:min(50, len(base64Str))])
	return base64Str
}

// DecodeBase64Image - base64 문자열을 바이트로 디코딩
// 브라우저가 보내는 data URL 형식 ("data:image/png;base64,....")도 허용
func DecodeBase64Image(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return data, nil
}

// DetectImageMIME - 이미지 바이트에서 MIME 타입 추론
func DetectImageMIME(imageData []byte) string {
	return http.DetectContentType(imageData)
}

// NormalizeReferenceImage - 레퍼런스 이미지를 Veo가 받는 포맷으로 정규화
// PNG/JPEG은 그대로, WebP는 PNG로 변환 (Veo는 WebP를 받지 않음)
func NormalizeReferenceImage(imageData []byte, mimeType string) ([]byte, string, error) {
	if mimeType == "" {
		mimeType = DetectImageMIME(imageData)
	}

	switch mimeType {
	case "image/png", "image/jpeg":
		return imageData, mimeType, nil

	case "image/webp":
		img, err := webp.Decode(bytes.NewReader(imageData), &decoder.Options{})
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode WebP: %w", err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("failed to encode PNG: %w", err)
		}

		log.Printf("✅ WebP converted to PNG: %d bytes → %d bytes", len(imageData), buf.Len())
		return buf.Bytes(), "image/png", nil

	default:
		return nil, "", fmt.Errorf("unsupported reference image type: %s", mimeType)
	}
}

// min helper function
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
