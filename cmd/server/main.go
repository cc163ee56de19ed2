package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidvault/video-app/internal/api"
	"vidvault/video-app/internal/config"
	"vidvault/video-app/internal/repository/mongo"
	"vidvault/video-app/internal/service"
	"vidvault/video-app/internal/storage"

	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

func main() {
	log.Println("Starting Video Vault Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureVideoIndexes(ctx, appDB.Collection("videos_meta"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Printf("Initializing blob storage (backend: %s)...", cfg.Storage.Backend)
	blobStorage, err := newBlobStorage(cfg, appDB)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize blob storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	videoRepo := mongo.NewMongoVideoRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	videoService := service.NewVideoService(videoRepo, blobStorage, service.UploadPolicy{
		MaxSize:      cfg.Storage.MaxUploadSize,
		AllowedTypes: cfg.Storage.AllowedTypes,
	})

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware
	router.MaxMultipartMemory = 8 << 20 // in-memory buffer threshold, not the upload cap

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, videoService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

// newBlobStorage builds the configured blob backend. GridFS shares the
// process-wide mongo client; disk and S3 bring their own handles.
func newBlobStorage(cfg config.Config, appDB *mongodriver.Database) (storage.BlobStorage, error) {
	switch cfg.Storage.Backend {
	case "gridfs":
		return storage.NewGridFSStorage(appDB, cfg.Storage.GridFSBucket)
	case "disk":
		return storage.NewDiskStorage(cfg.Storage.DiskDirectory)
	case "s3":
		return storage.NewS3Storage(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
