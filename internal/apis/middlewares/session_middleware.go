package middlewares

import (
	"net/http"
	"strings"

	"sql-research-assistant/internal/apis/dtos"
	"sql-research-assistant/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionIDKey is the gin context key holding the caller's session id.
const SessionIDKey = "sessionID"

// OptionalSession binds requests carrying a bearer token to their session.
// Requests without an Authorization header pass through unbound.
func OptionalSession(jwtService utils.JWTService, logger *zap.Logger) gin.HandlerFunc {
	return sessionMiddleware(jwtService, logger, false)
}

// RequireSession rejects requests that do not carry a valid session token.
func RequireSession(jwtService utils.JWTService, logger *zap.Logger) gin.HandlerFunc {
	return sessionMiddleware(jwtService, logger, true)
}

// SessionID returns the session bound to the request, if any.
func SessionID(c *gin.Context) *string {
	value, ok := c.Get(SessionIDKey)
	if !ok {
		return nil
	}
	sessionID, ok := value.(string)
	if !ok {
		return nil
	}
	return &sessionID
}

func sessionMiddleware(jwtService utils.JWTService, logger *zap.Logger, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				abortUnauthorized(c, "Authorization header is required")
				return
			}
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		sessionID, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			logger.Debug("rejected session token", zap.Error(err))
			abortUnauthorized(c, "Invalid or expired session token")
			return
		}

		c.Set(SessionIDKey, *sessionID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, errorMsg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dtos.Response{
		Success: false,
		Error:   &errorMsg,
	})
}
