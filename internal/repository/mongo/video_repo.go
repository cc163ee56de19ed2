package mongo

import (
	"context"
	"errors"
	"time"

	"vidvault/video-app/internal/domain"
	"vidvault/video-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const videoCollectionName = "videos_meta"

// mongoVideoRepository implements repository.VideoRepository
type mongoVideoRepository struct {
	collection *mongo.Collection
}

// NewMongoVideoRepository creates a new Video repository backed by MongoDB.
func NewMongoVideoRepository(db *mongo.Database) repository.VideoRepository {
	return &mongoVideoRepository{
		collection: db.Collection(videoCollectionName),
	}
}

// Create inserts a new video metadata record into the database.
func (r *mongoVideoRepository) Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error) {
	if video.Title == "" || video.BlobRef == "" {
		return primitive.NilObjectID, errors.New("video requires title and blobRef")
	}

	video.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	video.UploadedAt = now
	video.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, video)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a video record by its ID.
func (r *mongoVideoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	var video domain.Video
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// GetAll retrieves every video record in store-default order.
func (r *mongoVideoRepository) GetAll(ctx context.Context) ([]domain.Video, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var videos []domain.Video
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// Update replaces the mutable fields of an existing record.
func (r *mongoVideoRepository) Update(ctx context.Context, video *domain.Video) error {
	if video.ID == primitive.NilObjectID {
		return errors.New("video ID is required for update")
	}

	video.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": video.ID}
	update := bson.M{"$set": bson.M{
		"title":       video.Title,
		"description": video.Description,
		"filename":    video.FileName,
		"blobRef":     video.BlobRef,
		"contentType": video.ContentType,
		"size":        video.Size,
		"updatedAt":   video.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a video record by its ID.
func (r *mongoVideoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureVideoIndexes creates necessary indexes for the videos collection.
func EnsureVideoIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Listing pages sort client-side today, but recency queries hit this.
			Keys:    bson.D{{Key: "uploadedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Blob refs are unique per backend; the index doubles as a
			// dangling-reference audit aid.
			Keys:    bson.D{{Key: "blobRef", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
