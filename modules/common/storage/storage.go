package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"promo-video-server/modules/common/config"
)

type Client struct {
	httpClient *http.Client
}

// NewClient - Storage 클라이언트 생성
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// UploadVideo - 완성된 비디오를 Supabase Storage에 업로드
// 업로드가 비활성화되어 있으면 no-op ("" 반환)
func (c *Client) UploadVideo(ctx context.Context, videoData []byte, jobID string) (string, error) {
	cfg := config.GetConfig()

	if !cfg.StorageUploadEnabled() {
		return "", nil
	}

	// 파일 경로 생성
	fileName := fmt.Sprintf("product_video_%s.mp4", jobID)
	filePath := fmt.Sprintf("generated-videos/%s", fileName)

	log.Printf("📤 Uploading video to storage: %s (%d bytes)", filePath, len(videoData))

	// Supabase Storage API URL
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s",
		cfg.SupabaseURL, cfg.SupabaseVideoBucket, filePath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(videoData))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", "video/mp4")

	// 업로드 실행
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("✅ Video uploaded successfully: %s", filePath)
	return filePath, nil
}
