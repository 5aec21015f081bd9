package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/damoang/angple-wiki/internal/common"
	"github.com/damoang/angple-wiki/internal/domain"
	"github.com/damoang/angple-wiki/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Identity resolves a bearer token into a *domain.Identity. Requests without
// an Authorization header pass through as anonymous; a malformed or invalid
// token is rejected with 401.
func Identity(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.Verify(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired", err)
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", err)
			}
			c.Abort()
			return
		}

		c.Set(identityKey, &domain.Identity{ID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// GetIdentity caller identity, nil for anonymous requests
func GetIdentity(c *gin.Context) *domain.Identity {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	if id, ok := v.(*domain.Identity); ok {
		return id
	}
	return nil
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	if id := GetIdentity(c); id != nil {
		return id.ID
	}
	return ""
}
