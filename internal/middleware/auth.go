package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lalith-99/dormlink/internal/auth"
	"github.com/lalith-99/dormlink/internal/session"
)

const ContextKeyIdentity = "identity"

// AuthMiddleware validates the session token and stores the caller's
// identity in the gin context and the request context. The token comes from
// "Authorization: Bearer <token>" or, for websocket upgrades that cannot set
// headers, the "token" query parameter.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, reason := bearerToken(c)
		if reason != "" {
			unauthorized(c, reason)
			return
		}

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		id := claims.Identity()
		c.Set(ContextKeyIdentity, id)
		c.Request = c.Request.WithContext(session.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (token, reason string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if t := c.Query("token"); t != "" {
			return t, ""
		}
		return "", "missing authorization header"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", "invalid authorization format, expected: Bearer <token>"
	}
	return parts[1], ""
}

func unauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"reason":  reason,
	})
}

// GetIdentity returns the identity stored by AuthMiddleware. It is the zero
// Identity on unauthenticated routes, which every role check rejects.
func GetIdentity(c *gin.Context) session.Identity {
	val, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return session.Identity{}
	}
	id, ok := val.(session.Identity)
	if !ok {
		return session.Identity{}
	}
	return id
}
