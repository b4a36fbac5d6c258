package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

// identityMiddleware extracts the user identity from an optional bearer token.
// Requests without a token stay anonymous; only a token that parses and
// verifies contributes an identity. It never rejects a request.
func identityMiddleware(secret string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || secret == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		token, err := jwt.Parse(strings.TrimSpace(parts[1]), func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			logger.Warn("bearer token rejected", "error", err)
			c.Next()
			return
		}
		if subject, err := token.Claims.GetSubject(); err == nil && subject != "" {
			c.Set(userIDKey, subject)
		}
		c.Next()
	}
}

// userID returns the authenticated user id, or "" for anonymous requests.
func userID(c *gin.Context) string {
	value, ok := c.Get(userIDKey)
	if !ok {
		return ""
	}
	id, _ := value.(string)
	return id
}
