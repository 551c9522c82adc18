package middlewares

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jobscout/jobscout/internal/apperrors"
	"github.com/jobscout/jobscout/internal/auth"
	"github.com/jobscout/jobscout/internal/domain/user"
)

// SessionCookie is the cookie the session token rides in.
const SessionCookie = "token"

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt     TokenVerifier
	users   UserLoader
	respond apperrors.Responder
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader, respond apperrors.Responder) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users, respond: respond}
}

// RequireAuth resolves the caller's identity from the session cookie, or
// failing that a bearer header, and confirms the account still exists. The
// role comes from the database row, not the token, so a role change takes
// effect without waiting out the token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			m.respond.Respond(c, apperrors.Auth("Login first to access this resource."))
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			m.respond.Respond(c, apperrors.Auth("Login first to access this resource.").WithCause(err))
			return
		}

		u, err := m.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				m.respond.Respond(c, apperrors.Auth("Login first to access this resource."))
				return
			}
			m.respond.Respond(c, apperrors.Internal(err))
			return
		}

		SetIdentity(c, u.ID, u.Email, u.Role)

		c.Next()
	}
}

// SetIdentity stashes the caller's identity on the context. Exposed so
// handler tests can fake an authenticated request.
func SetIdentity(c *gin.Context, id, email string, role user.Role) {
	c.Set(ctxUserIDKey, id)
	c.Set(ctxEmailKey, email)
	c.Set(ctxRoleKey, role)
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	}

	return ""
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxEmailKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

func RoleFromContext(c *gin.Context) (user.Role, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(user.Role)
	return role, ok
}
