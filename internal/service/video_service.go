package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"vidvault/video-app/internal/domain"
	"vidvault/video-app/internal/repository"
	"vidvault/video-app/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrVideoNotFound    = errors.New("video not found")
	ErrValidationFailed = errors.New("video validation failed")
	// ErrBlobMissing signals a record whose blob reference no longer resolves,
	// i.e. the payload was removed out-of-band.
	ErrBlobMissing = errors.New("video payload missing from storage")
)

// FilePayload carries an incoming binary payload and what we know about it
// before any byte is read.
type FilePayload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadInput is the validated input for creating a video.
type UploadInput struct {
	Title       string
	Description string
	File        *FilePayload
}

// UpdateInput is the input for updating a video. Empty text fields leave the
// stored values untouched; a nil File keeps the current payload.
type UpdateInput struct {
	Title       string
	Description string
	File        *FilePayload
}

// UploadPolicy bounds what the ingestion pipeline accepts, checked before
// any blob-store write.
type UploadPolicy struct {
	MaxSize      int64
	AllowedTypes []string
}

// --- Service Interface ---
type VideoService interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Video, error)
	List(ctx context.Context) ([]domain.Video, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Video, error)
	// Stream returns the record and an open read stream over its payload.
	// The caller must close the stream.
	Stream(ctx context.Context, id primitive.ObjectID) (*domain.Video, io.ReadCloser, error)
	Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) (*domain.Video, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// --- Service Implementation ---

// videoService implements the VideoService interface.
type videoService struct {
	videoRepo   repository.VideoRepository
	blobStorage storage.BlobStorage
	policy      UploadPolicy
}

// NewVideoService creates a new instance of videoService.
func NewVideoService(videoRepo repository.VideoRepository, blobStorage storage.BlobStorage, policy UploadPolicy) VideoService {
	return &videoService{
		videoRepo:   videoRepo,
		blobStorage: blobStorage,
		policy:      policy,
	}
}

// validatePayload enforces the upload policy. It must run before the blob
// store is touched so a rejected request leaves no partial writes.
func (s *videoService) validatePayload(file *FilePayload) error {
	if file.Size <= 0 {
		return fmt.Errorf("%w: empty payload", ErrValidationFailed)
	}
	if s.policy.MaxSize > 0 && file.Size > s.policy.MaxSize {
		return fmt.Errorf("%w: payload exceeds maximum size of %d bytes", ErrValidationFailed, s.policy.MaxSize)
	}
	if len(s.policy.AllowedTypes) > 0 {
		allowed := false
		for _, t := range s.policy.AllowedTypes {
			if t == file.ContentType {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: content type %q is not allowed", ErrValidationFailed, file.ContentType)
		}
	}
	return nil
}

// Upload runs the create pipeline: validate, write the blob, then persist
// the metadata record referencing it. The blob write always comes first so
// no record can ever point at a blob that was never written.
func (s *videoService) Upload(ctx context.Context, input UploadInput) (*domain.Video, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if input.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidationFailed)
	}
	if input.File == nil {
		return nil, fmt.Errorf("%w: video file is required", ErrValidationFailed)
	}
	if err := s.validatePayload(input.File); err != nil {
		return nil, err
	}

	blobRef, err := s.blobStorage.Upload(ctx, input.File.FileName, input.File.ContentType, input.File.Size, input.File.Content)
	if err != nil {
		return nil, fmt.Errorf("blob write failed: %w", err)
	}

	video := &domain.Video{
		Title:       input.Title,
		Description: input.Description,
		FileName:    input.File.FileName,
		BlobRef:     blobRef,
		ContentType: input.File.ContentType,
		Size:        input.File.Size,
	}

	if _, err := s.videoRepo.Create(ctx, video); err != nil {
		// The blob is now orphaned. Compensation is deliberately left to
		// offline remediation; the ref in the log is enough to locate it.
		log.Printf("ERROR: Metadata write failed after blob write, orphaned blob needs remediation (ref=%s): %v", blobRef, err)
		return nil, fmt.Errorf("metadata write failed: %w", err)
	}

	return video, nil
}

// List returns all video records in store-default order.
func (s *videoService) List(ctx context.Context) ([]domain.Video, error) {
	return s.videoRepo.GetAll(ctx)
}

// Get retrieves a single video record.
func (s *videoService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return video, nil
}

// Stream looks up a record and opens a read stream over its payload.
func (s *videoService) Stream(ctx context.Context, id primitive.ObjectID) (*domain.Video, io.ReadCloser, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.blobStorage.Download(ctx, video.BlobRef)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			log.Printf("ERROR: Video %s references missing blob %s", id.Hex(), video.BlobRef)
			return nil, nil, ErrBlobMissing
		}
		return nil, nil, fmt.Errorf("blob read failed: %w", err)
	}
	return video, stream, nil
}

// Update mutates a record's text fields and optionally replaces its payload.
// A replacement blob is written and referenced before the superseded blob is
// deleted, so a crash between steps can only ever orphan the old blob, never
// leave the record pointing at a missing one.
func (s *videoService) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	// Blank fields keep their stored values.
	if input.Title != "" {
		video.Title = input.Title
	}
	if input.Description != "" {
		video.Description = input.Description
	}

	if input.File == nil {
		if err := s.videoRepo.Update(ctx, video); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrVideoNotFound
			}
			return nil, err
		}
		return video, nil
	}

	if err := s.validatePayload(input.File); err != nil {
		return nil, err
	}

	newRef, err := s.blobStorage.Upload(ctx, input.File.FileName, input.File.ContentType, input.File.Size, input.File.Content)
	if err != nil {
		return nil, fmt.Errorf("blob write failed: %w", err)
	}

	oldRef := video.BlobRef
	video.BlobRef = newRef
	video.FileName = input.File.FileName
	video.ContentType = input.File.ContentType
	video.Size = input.File.Size

	if err := s.videoRepo.Update(ctx, video); err != nil {
		log.Printf("ERROR: Metadata update failed after blob write, orphaned blob needs remediation (ref=%s): %v", newRef, err)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("metadata update failed: %w", err)
	}

	// The new blob is durably referenced; the old one can go. A failure here
	// only orphans the superseded blob.
	if err := s.blobStorage.Delete(ctx, oldRef); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		log.Printf("ERROR: Failed to delete superseded blob, orphaned blob needs remediation (ref=%s): %v", oldRef, err)
	}

	return video, nil
}

// Delete removes a video's blob and then its record. Blob first: if the
// record delete fails, what remains is a record with a dangling reference,
// which is detectable and re-deletable, unlike an unreferenced blob.
func (s *videoService) Delete(ctx context.Context, id primitive.ObjectID) error {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVideoNotFound
		}
		return err
	}

	if err := s.blobStorage.Delete(ctx, video.BlobRef); err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			// Already gone, e.g. a previous delete attempt got this far.
			log.Printf("INFO: Blob %s already absent, deleting record %s anyway", video.BlobRef, id.Hex())
		} else {
			return fmt.Errorf("blob delete failed: %w", err)
		}
	}

	if err := s.videoRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVideoNotFound
		}
		return err
	}
	return nil
}
