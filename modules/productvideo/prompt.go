package productvideo

import (
	"fmt"
	"strings"
)

// featureLeadIn - 핵심 기능 블록 고정 도입 문장
const featureLeadIn = "Highlight the following key features:"

// closingGuidance - 고정 마무리 가이드 (전환/음악/퀄리티/레퍼런스 이미지)
const closingGuidance = "Use smooth, dynamic transitions between scenes and pair them with upbeat background music. " +
	"The video should have a polished, professional production quality suitable for an online storefront. " +
	"Use the supplied images as the primary visual reference for the product."

// BuildPrompt - 파라미터에서 결정적으로 프롬프트 생성 (순수 함수)
// 블록 순서 고정: 오프닝 → 타겟 문장(있으면) → 기능 블록(있으면) → 마무리 가이드
func BuildPrompt(params *GenerateVideoParams) string {
	opening := fmt.Sprintf("Create a %s, 15-second e-commerce product video for the '%s'.",
		strings.ToLower(params.Style), params.ProductName)

	sentences := []string{opening}

	if audience := strings.TrimSpace(params.TargetAudience); audience != "" {
		sentences = append(sentences, fmt.Sprintf("The video is aimed at %s.", audience))
	}

	prompt := strings.Join(sentences, " ")

	if features := NormalizeFeatureLines(params.KeyFeatures); len(features) > 0 {
		prompt += "\n" + featureLeadIn + "\n" + strings.Join(features, "\n")
	}

	return prompt + "\n" + closingGuidance
}

// NormalizeFeatureLines - 자유 입력 기능 텍스트 정규화
// 줄 단위로 나눠 trim하고 빈 줄은 버림 (순서 유지)
func NormalizeFeatureLines(keyFeatures string) []string {
	var lines []string
	for _, line := range strings.Split(keyFeatures, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}
