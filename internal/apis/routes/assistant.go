package routes

import (
	"sql-research-assistant/internal/apis/handlers"
	"sql-research-assistant/internal/apis/middlewares"
	"sql-research-assistant/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupAssistantRoutes(router *gin.Engine, assistantHandler *handlers.AssistantHandler, jwtService utils.JWTService, logger *zap.Logger) {
	assistant := router.Group("/sql-research-assistant")
	assistant.Use(middlewares.OptionalSession(jwtService, logger))
	{
		assistant.POST("/invoke", assistantHandler.Invoke)
		assistant.GET("/schema", assistantHandler.Schema)
	}
}
