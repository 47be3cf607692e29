package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Dwonczykj/daily-j-backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Probes
	router.GET("/health", handler.HealthCheck)
	router.GET("/version", handler.Version)
	router.GET("/status", handler.Status)

	// Analysis endpoints keep the paths existing clients call
	analysis := router.Group("/")
	analysis.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		analysis.POST("/analyze-image", handler.AnalyzeImage)
		analysis.POST("/upload_voice_note", handler.UploadVoiceNote)
		analysis.POST("/upload_image_for_ocr", handler.UploadImageForOCR)
		analysis.GET("/get_nutritional_values_for_ingredient", handler.GetNutritionalValuesForIngredient)
	}

	return router
}
