package handlers

import (
	"errors"
	"net/http"

	"sql-research-assistant/internal/apis/middlewares"
	"sql-research-assistant/internal/services"

	"github.com/gin-gonic/gin"
)

var errNoSession = errors.New("session is required")

type SessionHandler struct {
	sessionService   services.SessionService
	assistantService services.AssistantService
}

func NewSessionHandler(sessionService services.SessionService, assistantService services.AssistantService) *SessionHandler {
	return &SessionHandler{
		sessionService:   sessionService,
		assistantService: assistantService,
	}
}

// @Summary Create session
// @Description Issue a session token binding conversation memory
// @Produce json
// @Success 201 {object} dtos.Response
func (h *SessionHandler) Create(c *gin.Context) {
	response, statusCode, err := h.sessionService.Create()
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	respondData(c, statusCode, response)
}

func (h *SessionHandler) History(c *gin.Context) {
	sessionID := middlewares.SessionID(c)
	if sessionID == nil {
		respondError(c, http.StatusUnauthorized, errNoSession)
		return
	}

	response, statusCode, err := h.assistantService.History(c.Request.Context(), *sessionID)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	respondData(c, statusCode, response)
}

func (h *SessionHandler) ClearHistory(c *gin.Context) {
	sessionID := middlewares.SessionID(c)
	if sessionID == nil {
		respondError(c, http.StatusUnauthorized, errNoSession)
		return
	}

	statusCode, err := h.assistantService.ClearHistory(c.Request.Context(), *sessionID)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	respondData(c, statusCode, "History cleared")
}

func (h *SessionHandler) Transcripts(c *gin.Context) {
	sessionID := middlewares.SessionID(c)
	if sessionID == nil {
		respondError(c, http.StatusUnauthorized, errNoSession)
		return
	}

	response, statusCode, err := h.assistantService.Transcripts(c.Request.Context(), *sessionID)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	respondData(c, statusCode, response)
}
