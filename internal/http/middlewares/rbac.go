package middlewares

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jobscout/jobscout/internal/apperrors"
	"github.com/jobscout/jobscout/internal/domain/user"
)

// RequireRole gates a route to the given roles. Must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			m.respond.Respond(c, apperrors.Auth("Login first to access this resource."))
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		m.respond.Respond(c, apperrors.Forbidden(
			fmt.Sprintf("Role(%s) is not allowed to access this resource.", role)))
	}
}
