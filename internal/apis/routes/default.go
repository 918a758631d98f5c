package routes

import (
	"net/http"

	"sql-research-assistant/internal/apis/dtos"
	"sql-research-assistant/internal/apis/handlers"
	"sql-research-assistant/internal/observability"
	"sql-research-assistant/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// SetupDefaultRoutes registers every route group on router, resolving the
// handlers from the container.
func SetupDefaultRoutes(router *gin.Engine, container *dig.Container) error {
	return container.Invoke(func(
		obs *observability.Observability,
		assistantHandler *handlers.AssistantHandler,
		sessionHandler *handlers.SessionHandler,
		jwtService utils.JWTService,
		logger *zap.Logger,
	) {
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, dtos.Response{
				Success: true,
				Data:    "Server is healthy!",
			})
		})
		router.GET("/metrics", gin.WrapH(obs.Handler()))

		SetupAssistantRoutes(router, assistantHandler, jwtService, logger)
		SetupSessionRoutes(router, sessionHandler, jwtService, logger)
	})
}
