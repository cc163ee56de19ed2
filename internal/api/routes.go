package api

import (
	"net/http"

	"vidvault/video-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	videoService service.VideoService,
) {
	videoHandler := NewVideoHandler(videoService)

	router.Use(CORSMiddleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Upload keeps its own path for the browser client.
	router.POST("/upload", videoHandler.UploadVideo)

	videoGroup := router.Group("/videos")
	{
		videoGroup.GET("", videoHandler.ListVideos)
		videoGroup.GET("/:id", videoHandler.GetVideo)
		videoGroup.GET("/stream/:id", videoHandler.StreamVideo)
		videoGroup.PUT("/:id", videoHandler.UpdateVideo)
		videoGroup.DELETE("/:id", videoHandler.DeleteVideo)
	}

	// Legacy update path kept for older clients.
	router.PUT("/update/:id", videoHandler.UpdateVideo)
}
