package storage

import (
	"context"
	"io"
)

// BlobStorage defines the interface for binary payload storage operations.
// Implementations hand out an opaque reference on upload; the same reference
// is what Download and Delete expect back.
type BlobStorage interface {
	// Upload streams src into the store under a newly generated reference
	// and returns that reference. Nothing is retained if the write fails.
	Upload(ctx context.Context, fileName, contentType string, size int64, src io.Reader) (string, error)

	// Download opens a read stream for the payload stored under ref.
	// The caller owns the returned stream and must close it.
	Download(ctx context.Context, ref string) (io.ReadCloser, error)

	// Delete removes the payload stored under ref.
	Delete(ctx context.Context, ref string) error
}

// Error constants for storage layer
var (
	ErrBlobNotFound = StorageError("blob not found")
)

// StorageError helps distinguish storage errors
type StorageError string

func (e StorageError) Error() string {
	return string(e)
}
