package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vidvault/video-app/internal/domain"
	"vidvault/video-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubVideoService lets each test plug in just the behavior it needs.
type stubVideoService struct {
	uploadFn func(ctx context.Context, input service.UploadInput) (*domain.Video, error)
	listFn   func(ctx context.Context) ([]domain.Video, error)
	getFn    func(ctx context.Context, id primitive.ObjectID) (*domain.Video, error)
	streamFn func(ctx context.Context, id primitive.ObjectID) (*domain.Video, io.ReadCloser, error)
	updateFn func(ctx context.Context, id primitive.ObjectID, input service.UpdateInput) (*domain.Video, error)
	deleteFn func(ctx context.Context, id primitive.ObjectID) error
}

func (s *stubVideoService) Upload(ctx context.Context, input service.UploadInput) (*domain.Video, error) {
	return s.uploadFn(ctx, input)
}

func (s *stubVideoService) List(ctx context.Context) ([]domain.Video, error) {
	return s.listFn(ctx)
}

func (s *stubVideoService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	return s.getFn(ctx, id)
}

func (s *stubVideoService) Stream(ctx context.Context, id primitive.ObjectID) (*domain.Video, io.ReadCloser, error) {
	return s.streamFn(ctx, id)
}

func (s *stubVideoService) Update(ctx context.Context, id primitive.ObjectID, input service.UpdateInput) (*domain.Video, error) {
	return s.updateFn(ctx, id, input)
}

func (s *stubVideoService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.deleteFn(ctx, id)
}

func newTestRouter(svc service.VideoService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, svc)
	return router
}

func sampleVideo() *domain.Video {
	return &domain.Video{
		ID:          primitive.NewObjectID(),
		Title:       "A",
		Description: "d",
		FileName:    "clip.mp4",
		BlobRef:     "blob-1",
		ContentType: "video/mp4",
		Size:        7,
		UploadedAt:  time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

// multipartBody builds a multipart form with the given fields and an
// optional "video" file part.
func multipartBody(t *testing.T, fields map[string]string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileContent != nil {
		part, err := writer.CreateFormFile("video", "clip.mp4")
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadVideoCreated(t *testing.T) {
	video := sampleVideo()
	var gotInput service.UploadInput
	svc := &stubVideoService{
		uploadFn: func(ctx context.Context, input service.UploadInput) (*domain.Video, error) {
			gotInput = input
			return video, nil
		},
	}
	router := newTestRouter(svc)

	body, contentType := multipartBody(t, map[string]string{"title": "A", "description": "d"}, []byte("payload"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "A", gotInput.Title)
	assert.Equal(t, "d", gotInput.Description)
	require.NotNil(t, gotInput.File)
	assert.Equal(t, "clip.mp4", gotInput.File.FileName)
	assert.Equal(t, int64(len("payload")), gotInput.File.Size)

	var resp VideoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, video.ID.Hex(), resp.ID)
	assert.Equal(t, "A", resp.Title)
	assert.Equal(t, "blob-1", resp.BlobRef)
}

func TestUploadVideoMissingFields(t *testing.T) {
	svc := &stubVideoService{
		uploadFn: func(ctx context.Context, input service.UploadInput) (*domain.Video, error) {
			t.Fatal("service must not be called for invalid input")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	// No description field.
	body, contentType := multipartBody(t, map[string]string{"title": "A"}, []byte("payload"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestUploadVideoMissingFile(t *testing.T) {
	svc := &stubVideoService{
		uploadFn: func(ctx context.Context, input service.UploadInput) (*domain.Video, error) {
			t.Fatal("service must not be called without a file")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	body, contentType := multipartBody(t, map[string]string{"title": "A", "description": "d"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListVideos(t *testing.T) {
	video := sampleVideo()
	svc := &stubVideoService{
		listFn: func(ctx context.Context) ([]domain.Video, error) {
			return []domain.Video{*video}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []VideoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, video.ID.Hex(), resp[0].ID)
}

func TestListVideosEmpty(t *testing.T) {
	svc := &stubVideoService{
		listFn: func(ctx context.Context) ([]domain.Video, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestStreamVideo(t *testing.T) {
	video := sampleVideo()
	payload := []byte("payload")
	video.Size = int64(len(payload))
	svc := &stubVideoService{
		streamFn: func(ctx context.Context, id primitive.ObjectID) (*domain.Video, io.ReadCloser, error) {
			assert.Equal(t, video.ID, id)
			return video, io.NopCloser(bytes.NewReader(payload)), nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/videos/stream/"+video.ID.Hex(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Equal(t, payload, w.Body.Bytes())
}

func TestStreamVideoNotFound(t *testing.T) {
	svc := &stubVideoService{
		streamFn: func(ctx context.Context, id primitive.ObjectID) (*domain.Video, io.ReadCloser, error) {
			return nil, nil, service.ErrVideoNotFound
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/videos/stream/"+primitive.NewObjectID().Hex(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamVideoMissingBlob(t *testing.T) {
	svc := &stubVideoService{
		streamFn: func(ctx context.Context, id primitive.ObjectID) (*domain.Video, io.ReadCloser, error) {
			return nil, nil, service.ErrBlobMissing
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/videos/stream/"+primitive.NewObjectID().Hex(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamVideoInvalidID(t *testing.T) {
	svc := &stubVideoService{
		streamFn: func(ctx context.Context, id primitive.ObjectID) (*domain.Video, io.ReadCloser, error) {
			t.Fatal("service must not be called for a malformed id")
			return nil, nil, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/videos/stream/not-an-id", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateVideoLegacyPath(t *testing.T) {
	video := sampleVideo()
	svc := &stubVideoService{
		updateFn: func(ctx context.Context, id primitive.ObjectID, input service.UpdateInput) (*domain.Video, error) {
			assert.Equal(t, video.ID, id)
			assert.Equal(t, "New title", input.Title)
			assert.Nil(t, input.File)
			return video, nil
		},
	}
	router := newTestRouter(svc)

	body, contentType := multipartBody(t, map[string]string{"title": "New title"}, nil)
	req := httptest.NewRequest(http.MethodPut, "/update/"+video.ID.Hex(), body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateVideoWithFile(t *testing.T) {
	video := sampleVideo()
	svc := &stubVideoService{
		updateFn: func(ctx context.Context, id primitive.ObjectID, input service.UpdateInput) (*domain.Video, error) {
			require.NotNil(t, input.File)
			assert.Equal(t, "clip.mp4", input.File.FileName)
			return video, nil
		},
	}
	router := newTestRouter(svc)

	body, contentType := multipartBody(t, nil, []byte("new payload"))
	req := httptest.NewRequest(http.MethodPut, "/videos/"+video.ID.Hex(), body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteVideo(t *testing.T) {
	id := primitive.NewObjectID()
	svc := &stubVideoService{
		deleteFn: func(ctx context.Context, gotID primitive.ObjectID) error {
			assert.Equal(t, id, gotID)
			return nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/videos/"+id.Hex(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted")
}

func TestDeleteVideoNotFound(t *testing.T) {
	svc := &stubVideoService{
		deleteFn: func(ctx context.Context, id primitive.ObjectID) error {
			return service.ErrVideoNotFound
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/videos/"+primitive.NewObjectID().Hex(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetVideo(t *testing.T) {
	video := sampleVideo()
	svc := &stubVideoService{
		getFn: func(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
			return video, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/videos/"+video.ID.Hex(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp VideoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, video.ID.Hex(), resp.ID)
}
