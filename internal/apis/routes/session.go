package routes

import (
	"sql-research-assistant/internal/apis/handlers"
	"sql-research-assistant/internal/apis/middlewares"
	"sql-research-assistant/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupSessionRoutes(router *gin.Engine, sessionHandler *handlers.SessionHandler, jwtService utils.JWTService, logger *zap.Logger) {
	router.POST("/api/sessions", sessionHandler.Create)

	protected := router.Group("/api/sessions")
	protected.Use(middlewares.RequireSession(jwtService, logger))
	{
		protected.GET("/history", sessionHandler.History)
		protected.DELETE("/history", sessionHandler.ClearHistory)
		protected.GET("/transcripts", sessionHandler.Transcripts)
	}
}
