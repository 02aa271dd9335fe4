package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mystik-app/backend/internal/auth"
	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/pkg/response"
)

const (
	// ContextRole is the key for the caller's role in gin context.
	ContextRole = "key_role"
	// ContextSubject is the key for the caller's subject (key name or admin email) in gin context.
	ContextSubject = "key_subject"
)

// APIKey returns a middleware that requires a valid bearer project key and sets its claims in context.
func APIKey(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(c, "invalid or expired key")
			c.Abort()
			return
		}
		c.Set(ContextRole, claims.Role)
		c.Set(ContextSubject, claims.Subject)
		c.Next()
	}
}

// Subject returns the authenticated subject, or "" when none is set.
func Subject(c *gin.Context) string {
	return c.GetString(ContextSubject)
}

// Role returns the authenticated role, or "" when none is set.
func Role(c *gin.Context) models.Role {
	v, _ := c.Get(ContextRole)
	role, _ := v.(models.Role)
	return role
}
