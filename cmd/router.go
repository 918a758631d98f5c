package main

import (
	"time"

	"sql-research-assistant/config"
	"sql-research-assistant/internal/middleware"
	"sql-research-assistant/internal/observability"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// newRouter builds the engine with the global middleware chain. Logging and
// metrics wrap recovery so that recovered panics are still logged and counted.
func newRouter(env *config.Environment, logger *zap.Logger, obs *observability.Observability) *gin.Engine {
	ginApp := gin.New()

	ginApp.Use(middleware.RequestLogger(logger))
	ginApp.Use(obs.MetricsMiddleware())
	ginApp.Use(middleware.CustomRecoveryMiddleware(logger))

	// CORS
	ginApp.Use(cors.New(cors.Config{
		AllowOrigins: []string{env.CorsAllowedOrigin},
		AllowMethods: []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"User-Agent",
			"Referer",
		},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: env.CorsAllowedOrigin != "*",
		MaxAge:           12 * time.Hour,
	}))

	return ginApp
}
