package productvideo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-video-server/modules/common/jobstore"
)

type fakeQueue struct {
	jobIDs []string
	err    error
}

func (q *fakeQueue) Enqueue(ctx context.Context, jobID string) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	q.jobIDs = append(q.jobIDs, jobID)
	return int64(len(q.jobIDs)), nil
}

func newTestHandler(t *testing.T) (*mux.Router, *jobstore.Store, *fakeQueue, string) {
	t.Helper()
	store := jobstore.NewStore()
	queue := &fakeQueue{}
	videoDir := t.TempDir()

	r := mux.NewRouter()
	NewHandler(store, queue, videoDir).RegisterRoutes(r)
	return r, store, queue, videoDir
}

func postJSON(t *testing.T, router *mux.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validGenerateBody() GenerateVideoParams {
	return GenerateVideoParams{
		ProductName: "Aurora Desk Lamp",
		KeyFeatures: "Dimmable\nUSB-C charging",
		Style:       StyleModernMinimal,
		Model:       ModelVeoQuality,
		AspectRatio: AspectRatioLandscape,
		Resolution:  Resolution720p,
		Images: []ReferenceImage{
			{FileName: "a.png", MimeType: "image/png", Data: "aGVsbG8="},
		},
	}
}

func TestValidateEndpoint(t *testing.T) {
	router, _, _, _ := newTestHandler(t)

	cases := []struct {
		name      string
		req       ValidateRequest
		canSubmit bool
		reason    string
	}{
		{"missing both", ValidateRequest{}, false, ReasonMissingBoth},
		{"missing name", ValidateRequest{ImageCount: 2}, false, ReasonMissingName},
		{"missing images", ValidateRequest{ProductName: "Aurora Desk Lamp"}, false, ReasonMissingImages},
		{"submittable", ValidateRequest{ProductName: "Aurora Desk Lamp", ImageCount: 1}, true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, router, "/api/product-video/validate", tc.req)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp ValidateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.canSubmit, resp.CanSubmit)
			assert.Equal(t, tc.reason, resp.Reason)
		})
	}
}

func TestGenerateEndpointJSON(t *testing.T) {
	t.Run("valid request enqueues job", func(t *testing.T) {
		router, store, queue, _ := newTestHandler(t)

		rec := postJSON(t, router, "/api/product-video/generate", validGenerateBody())
		require.Equal(t, http.StatusAccepted, rec.Code)

		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.JobID)
		assert.Equal(t, jobstore.StatusPending, resp.Status)
		assert.Equal(t, int64(1), resp.QueuePosition)

		require.Equal(t, []string{resp.JobID}, queue.jobIDs)

		job, ok := store.Get(resp.JobID)
		require.True(t, ok)
		assert.Equal(t, jobstore.StatusPending, job.Status)

		payload, ok := store.Payload(resp.JobID)
		require.True(t, ok)
		params, ok := payload.(*GenerateVideoParams)
		require.True(t, ok)
		assert.Equal(t, "Aurora Desk Lamp", params.ProductName)
	})

	t.Run("missing name and images rejected with reason", func(t *testing.T) {
		router, _, queue, _ := newTestHandler(t)

		rec := postJSON(t, router, "/api/product-video/generate", GenerateVideoParams{})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ErrCodeInvalidRequest, resp.ErrorCode)
		assert.Equal(t, ReasonMissingBoth, resp.ErrorMessage)
		assert.Empty(t, queue.jobIDs)
	})

	t.Run("seven images rejected", func(t *testing.T) {
		router, _, queue, _ := newTestHandler(t)

		body := validGenerateBody()
		for i := 0; i < MaxReferenceImages; i++ {
			body.Images = append(body.Images, ReferenceImage{Data: "aGVsbG8="})
		}
		require.Len(t, body.Images, MaxReferenceImages+1)

		rec := postJSON(t, router, "/api/product-video/generate", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ErrCodeTooManyImages, resp.ErrorCode)
		assert.Empty(t, queue.jobIDs)
	})

	t.Run("invalid style rejected", func(t *testing.T) {
		router, _, _, _ := newTestHandler(t)

		body := validGenerateBody()
		body.Style = "Retro & Weird"

		rec := postJSON(t, router, "/api/product-video/generate", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ErrCodeInvalidRequest, resp.ErrorCode)
		assert.Contains(t, resp.ErrorMessage, "invalid style")
	})

	t.Run("empty enums fall back to defaults", func(t *testing.T) {
		router, store, _, _ := newTestHandler(t)

		body := validGenerateBody()
		body.Style = ""
		body.Model = ""
		body.AspectRatio = ""
		body.Resolution = ""

		rec := postJSON(t, router, "/api/product-video/generate", body)
		require.Equal(t, http.StatusAccepted, rec.Code)

		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		payload, ok := store.Payload(resp.JobID)
		require.True(t, ok)
		params := payload.(*GenerateVideoParams)
		assert.Equal(t, StyleModernMinimal, params.Style)
		assert.Equal(t, ModelVeoQuality, params.Model)
		assert.Equal(t, AspectRatioLandscape, params.AspectRatio)
		assert.Equal(t, Resolution720p, params.Resolution)
	})

	t.Run("enqueue failure returns 500 and fails the job", func(t *testing.T) {
		store := jobstore.NewStore()
		queue := &fakeQueue{err: errors.New("redis down")}
		r := mux.NewRouter()
		NewHandler(store, queue, t.TempDir()).RegisterRoutes(r)

		rec := postJSON(t, r, "/api/product-video/generate", validGenerateBody())
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ErrCodeInternalError, resp.ErrorCode)
	})
}

func TestGenerateEndpointMultipart(t *testing.T) {
	router, store, queue, _ := newTestHandler(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("productName", "Aurora Desk Lamp"))
	require.NoError(t, w.WriteField("keyFeatures", "Dimmable"))

	part, err := w.CreateFormFile("images", "ref.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/product-video/generate", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, queue.jobIDs, 1)

	payload, ok := store.Payload(resp.JobID)
	require.True(t, ok)
	params := payload.(*GenerateVideoParams)
	require.Len(t, params.Images, 1)
	assert.Equal(t, "ref.png", params.Images[0].FileName)
	assert.NotEmpty(t, params.Images[0].Data)
}

func TestGetJobEndpoint(t *testing.T) {
	router, store, _, _ := newTestHandler(t)

	t.Run("unknown job returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/product-video/jobs/nope", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("known job returns snapshot", func(t *testing.T) {
		store.Create("job-a", nil)
		store.SetStatus("job-a", jobstore.StatusProcessing, "Generating video... (poll 1/60)")

		req := httptest.NewRequest(http.MethodGet, "/api/product-video/jobs/job-a", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var job jobstore.Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.Equal(t, jobstore.StatusProcessing, job.Status)
	})
}

func TestCancelJobEndpoint(t *testing.T) {
	router, store, _, _ := newTestHandler(t)

	t.Run("unknown job returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/product-video/jobs/nope/cancel", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("pending job is cancelled", func(t *testing.T) {
		store.Create("job-b", nil)

		req := httptest.NewRequest(http.MethodPost, "/api/product-video/jobs/job-b/cancel", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		job, _ := store.Get("job-b")
		assert.Equal(t, jobstore.StatusCancelled, job.Status)
	})

	t.Run("finished job cannot be cancelled", func(t *testing.T) {
		store.Create("job-c", nil)
		store.SetResult("job-c", "/videos/product_video_job-c.mp4", "", "", 1)

		req := httptest.NewRequest(http.MethodPost, "/api/product-video/jobs/job-c/cancel", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)

		job, _ := store.Get("job-c")
		assert.Equal(t, jobstore.StatusCompleted, job.Status)
	})
}

func TestServeVideoEndpoint(t *testing.T) {
	router, _, _, videoDir := newTestHandler(t)

	fileName := "product_video_job-x.mp4"
	require.NoError(t, os.WriteFile(filepath.Join(videoDir, fileName), []byte("mp4 data"), 0644))

	t.Run("serves existing video", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/videos/"+fileName, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
		assert.Equal(t, "mp4 data", rec.Body.String())
	})

	t.Run("rejects non-mp4 names", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/videos/secrets.txt", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing file returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/videos/%s", "product_video_missing.mp4"), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
