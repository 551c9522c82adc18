package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jobscout/jobscout/internal/apperrors"
	"github.com/jobscout/jobscout/internal/domain/user"
	"github.com/jobscout/jobscout/internal/http/middlewares"
	"github.com/jobscout/jobscout/internal/mail"
	"github.com/jobscout/jobscout/internal/security"
)

// AuthUsersRepo is the slice of the user store the auth endpoints need.
type AuthUsersRepo interface {
	Create(ctx context.Context, u user.User) error
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	ResetPassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	GetByResetToken(ctx context.Context, tokenHash string) (user.User, error)
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Generate(u user.User) (string, error)
}

type AuthHandler struct {
	users      AuthUsersRepo
	tokens     TokenIssuer
	mailer     mail.Mailer
	cookieDays int
	production bool
	respond    apperrors.Responder
}

func NewAuthHandler(users AuthUsersRepo, tokens TokenIssuer, mailer mail.Mailer,
	cookieDays int, production bool, respond apperrors.Responder) *AuthHandler {
	return &AuthHandler{
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		cookieDays: cookieDays,
		production: production,
		respond:    respond,
	}
}

type RegisterRequest struct {
	Name     string    `json:"name" binding:"required,max=50"`
	Email    string    `json:"email" binding:"required,email"`
	Password string    `json:"password" binding:"required,min=8"`
	Role     user.Role `json:"role" binding:"omitempty"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest
	if !BindJSON(ctx, &req, h.respond) {
		return
	}

	role := req.Role
	if role == "" {
		role = user.RoleUser
	}
	if !role.Registerable() {
		h.respond.Respond(ctx, apperrors.Validation(
			fmt.Sprintf("Role %q cannot be registered.", role)))
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	u := user.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}

	if err := h.users.Create(ctx.Request.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			h.respond.Respond(ctx, apperrors.Conflict("Email address is already registered."))
			return
		}
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	h.sendToken(ctx, u)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login deliberately answers the same way for an unknown email and a wrong
// password.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if !BindJSON(ctx, &req, h.respond) {
		return
	}

	u, err := h.users.GetByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.respond.Respond(ctx, apperrors.Auth("Invalid Email or Password."))
			return
		}
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		h.respond.Respond(ctx, apperrors.Auth("Invalid Email or Password."))
		return
	}

	h.sendToken(ctx, u)
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.setCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully.",
	})
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword issues a single-use reset token and mails the raw value.
// If the mail cannot leave, the token is cleared so a half-issued reset
// never lingers.
func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest
	if !BindJSON(ctx, &req, h.respond) {
		return
	}

	u, err := h.users.GetByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.respond.Respond(ctx, apperrors.NotFound("No user found with this email."))
			return
		}
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	raw, tokenHash, err := security.NewResetToken()
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	expire := time.Now().Add(security.ResetTokenTTL)
	if err := h.users.SetResetToken(ctx.Request.Context(), u.ID, tokenHash, expire); err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/password/reset/%s", scheme(ctx), ctx.Request.Host, raw)

	if err := h.mailer.SendPasswordReset(ctx.Request.Context(), u.Email, resetURL); err != nil {
		_ = h.users.ClearResetToken(ctx.Request.Context(), u.ID)
		h.respond.Respond(ctx, apperrors.Delivery("Email could not be sent.", err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Email sent to " + u.Email + ".",
	})
}

type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest
	if !BindJSON(ctx, &req, h.respond) {
		return
	}

	if req.Password != req.ConfirmPassword {
		h.respond.Respond(ctx, apperrors.Validation("Password does not match."))
		return
	}

	tokenHash := security.HashResetToken(ctx.Param("token"))

	u, err := h.users.GetByResetToken(ctx.Request.Context(), tokenHash)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.respond.Respond(ctx, apperrors.Token("Password Reset token is invalid or has expired."))
			return
		}
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	if err := h.users.ResetPassword(ctx.Request.Context(), u.ID, hash); err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	h.sendToken(ctx, u)
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func (h *AuthHandler) UpdatePassword(ctx *gin.Context) {
	var req UpdatePasswordRequest
	if !BindJSON(ctx, &req, h.respond) {
		return
	}

	id, _ := middlewares.UserIDFromContext(ctx)

	u, err := h.users.GetByID(ctx.Request.Context(), id)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.CurrentPassword); err != nil {
		h.respond.Respond(ctx, apperrors.Auth("Old Password is incorrect."))
		return
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	if err := h.users.UpdatePassword(ctx.Request.Context(), u.ID, hash); err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	h.sendToken(ctx, u)
}

// Check reports whether the session is valid and who it belongs to. The
// middleware already rejected anything unauthenticated with a 401.
func (h *AuthHandler) Check(ctx *gin.Context) {
	id, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"id":            id,
		"role":          role,
	})
}

// sendToken mints a session token, sets it as the session cookie and echoes
// it in the body for non-browser clients.
func (h *AuthHandler) sendToken(ctx *gin.Context, u user.User) {
	token, err := h.tokens.Generate(u)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	h.setCookie(ctx, token, h.cookieDays*24*3600)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}

func (h *AuthHandler) setCookie(ctx *gin.Context, value string, maxAge int) {
	// Cross-site frontends need SameSite=None, which browsers only accept
	// together with Secure.
	if h.production {
		ctx.SetSameSite(http.SameSiteNoneMode)
	} else {
		ctx.SetSameSite(http.SameSiteLaxMode)
	}

	ctx.SetCookie(middlewares.SessionCookie, value, maxAge, "/", "", h.production, true)
}

func scheme(ctx *gin.Context) string {
	if ctx.Request.TLS != nil {
		return "https"
	}
	if proto := ctx.GetHeader("X-Forwarded-Proto"); proto == "https" {
		return "https"
	}
	return "http"
}
