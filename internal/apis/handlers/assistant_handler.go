package handlers

import (
	"net/http"

	"sql-research-assistant/internal/apis/dtos"
	"sql-research-assistant/internal/apis/middlewares"
	"sql-research-assistant/internal/services"

	"github.com/gin-gonic/gin"
)

type AssistantHandler struct {
	assistantService services.AssistantService
}

func NewAssistantHandler(assistantService services.AssistantService) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
	}
}

// @Summary Invoke
// @Description Answer a natural-language question over the database
// @Accept json
// @Produce json
// @Param invokeRequest body dtos.InvokeRequest true "Question"
// @Success 200 {object} dtos.Response
func (h *AssistantHandler) Invoke(c *gin.Context) {
	var req dtos.InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	response, statusCode, err := h.assistantService.Ask(c.Request.Context(), middlewares.SessionID(c), req.Question)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	respondData(c, statusCode, response)
}

// @Summary Schema
// @Description Current schema description as given to the model
// @Produce json
// @Success 200 {object} dtos.Response
func (h *AssistantHandler) Schema(c *gin.Context) {
	response, statusCode, err := h.assistantService.Schema(c.Request.Context())
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	respondData(c, statusCode, response)
}
