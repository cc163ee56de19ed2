package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video ties descriptive metadata to a binary payload held in the blob
// store. The payload itself never lives in this document; BlobRef is the
// identifier the storage backend handed out when the bytes were written.
type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	FileName    string             `bson:"filename" json:"filename"`
	BlobRef     string             `bson:"blobRef" json:"blobRef"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"` // bytes
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
