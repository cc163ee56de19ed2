package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// gridfsStorage implements the BlobStorage interface on top of a GridFS
// bucket. Payloads are chunked by the driver; the blob reference is the hex
// form of the GridFS file id.
type gridfsStorage struct {
	bucket *gridfs.Bucket
}

// NewGridFSStorage creates a blob store backed by a GridFS bucket on the
// given database.
func NewGridFSStorage(db *mongo.Database, bucketName string) (BlobStorage, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		log.Printf("ERROR: Failed to open GridFS bucket '%s': %v", bucketName, err)
		return nil, err
	}

	log.Printf("INFO: GridFS storage initialized, bucket: %s", bucketName)
	return &gridfsStorage{bucket: bucket}, nil
}

// Upload streams src into a new GridFS file and returns its id as hex.
// A failed copy aborts the upload stream so no orphaned chunks remain.
func (g *gridfsStorage) Upload(ctx context.Context, fileName, contentType string, size int64, src io.Reader) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = g.bucket.SetWriteDeadline(deadline)
	}

	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	stream, err := g.bucket.OpenUploadStream(fileName, uploadOpts)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(stream, src); err != nil {
		// Abort drops the chunks written so far.
		_ = stream.Abort()
		return "", err
	}

	if err := stream.Close(); err != nil {
		return "", err
	}

	fileID, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected GridFS file id type %T", stream.FileID)
	}
	return fileID.Hex(), nil
}

// Download opens a read stream for the GridFS file referenced by ref.
func (g *gridfsStorage) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	fileID, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		// A ref this backend never issued cannot resolve to a blob.
		return nil, ErrBlobNotFound
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = g.bucket.SetReadDeadline(deadline)
	}

	stream, err := g.bucket.OpenDownloadStream(fileID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return stream, nil
}

// Delete removes the GridFS file referenced by ref.
func (g *gridfsStorage) Delete(ctx context.Context, ref string) error {
	fileID, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return ErrBlobNotFound
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = g.bucket.SetWriteDeadline(deadline)
	}

	if err := g.bucket.Delete(fileID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrBlobNotFound
		}
		return err
	}
	return nil
}
