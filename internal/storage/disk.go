package storage

import (
	"context"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// diskStorage implements the BlobStorage interface using the local
// filesystem. Each blob is a single file under baseDir; the blob reference
// is the generated file name.
type diskStorage struct {
	baseDir string
}

// NewDiskStorage creates a blob store rooted at baseDir, creating the
// directory if needed.
func NewDiskStorage(baseDir string) (BlobStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		log.Printf("ERROR: Failed to create blob directory '%s': %v", baseDir, err)
		return nil, err
	}

	log.Printf("INFO: Disk storage initialized, directory: %s", baseDir)
	return &diskStorage{baseDir: baseDir}, nil
}

// Upload copies src to a new file named by a generated UUID, keeping the
// original extension so the payload stays recognizable on disk.
func (d *diskStorage) Upload(ctx context.Context, fileName, contentType string, size int64, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	ref := uuid.NewString() + ext
	fullPath := path.Join(d.baseDir, ref)

	fp, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(fp, src); err != nil {
		fp.Close()
		// Drop the partial file so a failed write leaves nothing behind.
		os.Remove(fullPath)
		return "", err
	}

	if err := fp.Sync(); err != nil {
		fp.Close()
		os.Remove(fullPath)
		return "", err
	}

	if err := fp.Close(); err != nil {
		os.Remove(fullPath)
		return "", err
	}
	return ref, nil
}

// Download opens the file referenced by ref for reading.
func (d *diskStorage) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	fp, err := os.Open(path.Join(d.baseDir, path.Base(ref)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return fp, nil
}

// Delete removes the file referenced by ref.
func (d *diskStorage) Delete(ctx context.Context, ref string) error {
	err := os.Remove(path.Join(d.baseDir, path.Base(ref)))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrBlobNotFound
		}
		return err
	}
	return nil
}
