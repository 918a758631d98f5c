package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "sql-research-assistant"

var ErrInvalidSessionToken = errors.New("invalid or expired session token")

// JWTService issues and validates the signed tokens that carry a session id.
type JWTService interface {
	GenerateSessionToken() (sessionID string, token string, expiresAt time.Time, err error)
	ValidateToken(token string) (*string, error)
}

type jwtService struct {
	secretKey       string
	sessionDuration time.Duration
	now             func() time.Time
}

func NewJWTService(secretKey string, sessionDuration time.Duration) JWTService {
	return &jwtService{
		secretKey:       secretKey,
		sessionDuration: sessionDuration,
		now:             time.Now,
	}
}

func (s *jwtService) GenerateSessionToken() (string, string, time.Time, error) {
	sessionID := uuid.NewString()
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.sessionDuration)

	claims := jwt.MapClaims{
		"session_id": sessionID,
		"iat":        issuedAt.Unix(),
		"iss":        sessionIssuer,
		"exp":        expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return sessionID, tokenString, expiresAt, nil
}

// ValidateToken returns the session id carried by a valid token.
func (s *jwtService) ValidateToken(tokenString string) (*string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSessionToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSessionToken
	}

	sessionID, ok := claims["session_id"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing session_id", ErrInvalidSessionToken)
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSessionToken, err)
	}
	return &sessionID, nil
}
