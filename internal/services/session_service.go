package services

import (
	"net/http"

	"sql-research-assistant/internal/apis/dtos"
	"sql-research-assistant/internal/utils"
)

type SessionService interface {
	Create() (*dtos.SessionResponse, uint32, error)
}

type sessionService struct {
	jwtService utils.JWTService
}

func NewSessionService(jwtService utils.JWTService) SessionService {
	return &sessionService{jwtService: jwtService}
}

func (s *sessionService) Create() (*dtos.SessionResponse, uint32, error) {
	sessionID, token, expiresAt, err := s.jwtService.GenerateSessionToken()
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &dtos.SessionResponse{
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, http.StatusCreated, nil
}
