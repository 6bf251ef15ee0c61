package productvideo

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 PNG 헤더 조각 - MIME 감지용으로 충분
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk error")
}

func TestSubmitDisabledReason(t *testing.T) {
	t.Run("missing both", func(t *testing.T) {
		assert.Equal(t, ReasonMissingBoth, SubmitDisabledReason("", 0))
		assert.Equal(t, ReasonMissingBoth, SubmitDisabledReason("   ", 0))
	})

	t.Run("missing name only", func(t *testing.T) {
		assert.Equal(t, ReasonMissingName, SubmitDisabledReason("  \t", 3))
	})

	t.Run("missing images only", func(t *testing.T) {
		assert.Equal(t, ReasonMissingImages, SubmitDisabledReason("Aurora Desk Lamp", 0))
	})

	t.Run("submittable", func(t *testing.T) {
		assert.Equal(t, "", SubmitDisabledReason("Aurora Desk Lamp", 1))
	})
}

func TestCollectorAddImage(t *testing.T) {
	t.Run("seventh image is rejected", func(t *testing.T) {
		c := NewCollector(nil)
		for i := 0; i < MaxReferenceImages; i++ {
			err := c.AddImage(fmt.Sprintf("ref%d.png", i), bytes.NewReader(pngBytes))
			require.NoError(t, err)
		}

		err := c.AddImage("one-too-many.png", bytes.NewReader(pngBytes))
		assert.ErrorIs(t, err, ErrTooManyImages)
		assert.Len(t, c.Images, MaxReferenceImages)
	})

	t.Run("failing source does not change state", func(t *testing.T) {
		c := NewCollector(nil)
		err := c.AddImage("broken.png", failingReader{})
		assert.Error(t, err)
		assert.Empty(t, c.Images)
	})

	t.Run("empty source is rejected", func(t *testing.T) {
		c := NewCollector(nil)
		err := c.AddImage("empty.png", bytes.NewReader(nil))
		assert.Error(t, err)
		assert.Empty(t, c.Images)
	})
}

func TestCollectorRemoveImage(t *testing.T) {
	c := NewCollector(nil)
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		require.NoError(t, c.AddImage(name, bytes.NewReader(pngBytes)))
	}

	c.RemoveImage(1)
	require.Len(t, c.Images, 2)
	assert.Equal(t, "a.png", c.Images[0].FileName)
	assert.Equal(t, "c.png", c.Images[1].FileName)

	// 범위 밖 인덱스는 no-op
	c.RemoveImage(-1)
	c.RemoveImage(5)
	assert.Len(t, c.Images, 2)
}

func TestCollectorSeed(t *testing.T) {
	prior := &GenerateVideoParams{
		ProductName:    "Aurora Desk Lamp",
		KeyFeatures:    "Dimmable",
		TargetAudience: "remote workers",
		Style:          StyleBoldEnergetic,
		Model:          ModelVeoFast,
		AspectRatio:    AspectRatioPortrait,
		Resolution:     Resolution1080p,
		Images: []ReferenceImage{
			{FileName: "a.png", MimeType: "image/png", Data: "aGVsbG8="},
		},
	}

	c := NewCollector(prior)
	assert.Equal(t, prior.ProductName, c.ProductName)
	assert.Equal(t, prior.Style, c.Style)
	assert.Equal(t, prior.Model, c.Model)
	assert.Len(t, c.Images, 1)

	// 시딩된 이미지 수정이 원본에 영향을 주지 않아야 함
	c.RemoveImage(0)
	assert.Len(t, prior.Images, 1)
}

func TestCollectorBuildParams(t *testing.T) {
	c := NewCollector(nil)
	c.ProductName = "Aurora Desk Lamp"
	require.NoError(t, c.AddImage("a.png", bytes.NewReader(pngBytes)))

	params := c.BuildParams()
	require.Len(t, params.Images, 1)

	// 스냅샷 이후의 Collector 변경이 params에 반영되면 안 됨
	c.RemoveImage(0)
	assert.Len(t, params.Images, 1)
	assert.Equal(t, StyleModernMinimal, params.Style)
	assert.Equal(t, ModelVeoQuality, params.Model)
}
