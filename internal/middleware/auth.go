package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/roomchat/pkg/auth"
)

const (
	UserIDKey   = "userID"
	IdentityKey = "identity"
	TokenKey    = "token"
)

// AuthMiddleware проверяет JWT токен из Authorization header
func AuthMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid token"})
			return
		}

		authenticate(c, verifier, token)
	}
}

// WSAuthMiddleware специальный middleware для WebSocket: токен из query
// (?token=) или из Authorization header. Без токена апгрейд не происходит.
func WSAuthMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = strings.TrimSpace(parts[1])
				}
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}

		authenticate(c, verifier, token)
	}
}

func authenticate(c *gin.Context, verifier *auth.Verifier, token string) {
	identity, err := verifier.Verify(c.Request.Context(), token)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrVerificationUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.AbortWithStatusJSON(status, gin.H{"message": err.Error()})
		return
	}

	c.Set(UserIDKey, identity.UserID)
	c.Set(IdentityKey, identity)
	c.Set(TokenKey, token)
	c.Next()
}
