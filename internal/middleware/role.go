package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles. Mount it after APIKey.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := Role(c)
		if role == "" {
			response.Unauthorized(c, "missing key context")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
