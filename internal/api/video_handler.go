package api

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"vidvault/video-app/internal/domain"
	"vidvault/video-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VideoHandler holds the video service dependency.
type VideoHandler struct {
	videoService service.VideoService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(videoService service.VideoService) *VideoHandler {
	return &VideoHandler{videoService: videoService}
}

// --- DTOs for API (Data Transfer Objects) ---

// UploadVideoRequest defines the expected multipart fields for an upload.
// The file part is read separately from the form.
type UploadVideoRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required"`
}

// UpdateVideoRequest allows any subset of fields; blank values keep the
// stored ones.
type UpdateVideoRequest struct {
	Title       string `form:"title"`
	Description string `form:"description"`
}

// VideoResponse is the DTO for returning video details.
type VideoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileName    string    `json:"filename"`
	BlobRef     string    `json:"blobRef"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MapVideoToResponse converts a domain.Video to VideoResponse DTO.
func MapVideoToResponse(v *domain.Video) VideoResponse {
	if v == nil {
		return VideoResponse{}
	}
	return VideoResponse{
		ID:          v.ID.Hex(),
		Title:       v.Title,
		Description: v.Description,
		FileName:    v.FileName,
		BlobRef:     v.BlobRef,
		ContentType: v.ContentType,
		Size:        v.Size,
		UploadedAt:  v.UploadedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// MapVideosToResponse converts a slice of domain.Video to a slice of VideoResponse DTO.
func MapVideosToResponse(videos []domain.Video) []VideoResponse {
	responses := make([]VideoResponse, len(videos))
	for i, v := range videos {
		responses[i] = MapVideoToResponse(&v)
	}
	return responses
}

// --- Helpers ---

// parseVideoID extracts and validates the :id path parameter.
func parseVideoID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid video ID format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// payloadFromHeader opens the uploaded form file and wraps it as a service
// payload. The caller must close the returned file.
func payloadFromHeader(header *multipart.FileHeader) (*service.FilePayload, multipart.File, error) {
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &service.FilePayload{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     file,
	}, file, nil
}

// handleServiceError maps service errors onto HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrVideoNotFound):
		abortWithError(c, http.StatusNotFound, "Video not found.")
	case errors.Is(err, service.ErrBlobMissing):
		abortWithError(c, http.StatusNotFound, "Video payload is missing from storage.")
	default:
		log.Printf("ERROR: %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		abortWithError(c, http.StatusInternalServerError, "Internal server error.")
	}
}

// --- Handler Methods ---

// UploadVideo handles POST /upload: multipart form with title, description
// and a "video" file part.
func (h *VideoHandler) UploadVideo(c *gin.Context) {
	var req UploadVideoRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	header, err := c.FormFile("video")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "No file uploaded.")
		return
	}

	payload, file, err := payloadFromHeader(header)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to read uploaded file.")
		return
	}
	defer file.Close()

	video, err := h.videoService.Upload(c.Request.Context(), service.UploadInput{
		Title:       req.Title,
		Description: req.Description,
		File:        payload,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapVideoToResponse(video))
}

// ListVideos handles GET /videos.
func (h *VideoHandler) ListVideos(c *gin.Context) {
	videos, err := h.videoService.List(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve videos.")
		return
	}

	if videos == nil {
		c.JSON(http.StatusOK, []VideoResponse{})
		return
	}

	c.JSON(http.StatusOK, MapVideosToResponse(videos))
}

// GetVideo handles GET /videos/:id.
func (h *VideoHandler) GetVideo(c *gin.Context) {
	id, ok := parseVideoID(c)
	if !ok {
		return
	}

	video, err := h.videoService.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapVideoToResponse(video))
}

// StreamVideo handles GET /videos/stream/:id. The payload is relayed from
// the blob store to the client chunk by chunk; a slow client stalls only its
// own response.
func (h *VideoHandler) StreamVideo(c *gin.Context) {
	id, ok := parseVideoID(c)
	if !ok {
		return
	}

	video, stream, err := h.videoService.Stream(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	defer stream.Close()

	contentType := video.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", video.FileName),
	}
	c.DataFromReader(http.StatusOK, video.Size, contentType, stream, extraHeaders)
}

// UpdateVideo handles PUT /update/:id and PUT /videos/:id. All fields are
// optional; a new "video" file part replaces the stored payload.
func (h *VideoHandler) UpdateVideo(c *gin.Context) {
	id, ok := parseVideoID(c)
	if !ok {
		return
	}

	var req UpdateVideoRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	input := service.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
	}

	if header, err := c.FormFile("video"); err == nil {
		payload, file, err := payloadFromHeader(header)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to read uploaded file.")
			return
		}
		defer file.Close()
		input.File = payload
	}

	video, err := h.videoService.Update(c.Request.Context(), id, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapVideoToResponse(video))
}

// DeleteVideo handles DELETE /videos/:id.
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	id, ok := parseVideoID(c)
	if !ok {
		return
	}

	if err := h.videoService.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Video deleted successfully"})
}
