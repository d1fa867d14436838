package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prompt2insight/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestLogger(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		query := v1.Group("/query")
		{
			query.POST("/resolve", handler.ResolveQuery)
			query.POST("/amazon", handler.ScrapeAmazon)
		}

		charts := v1.Group("/charts")
		{
			charts.POST("/price", handler.RenderPriceChart)
		}
	}

	return router
}
