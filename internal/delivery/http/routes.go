package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rigsync/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		imports := v1.Group("/imports")
		{
			imports.POST("", handler.CreateImport)
			imports.GET("/:id", handler.GetImport)
			imports.POST("/:id/upload", handler.UploadImport)
			imports.POST("/:id/analyze", handler.AnalyzeImport)
			imports.POST("/:id/confirm", handler.ConfirmImport)
			imports.POST("/:id/cancel", handler.CancelImport)
			imports.PUT("/:id/rows/:row/skip", handler.SkipRow)
		}
	}

	return router
}
