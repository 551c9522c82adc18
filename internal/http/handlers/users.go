package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jobscout/jobscout/internal/apperrors"
	"github.com/jobscout/jobscout/internal/domain/job"
	"github.com/jobscout/jobscout/internal/domain/user"
	"github.com/jobscout/jobscout/internal/http/middlewares"
	"github.com/jobscout/jobscout/internal/storage"
)

// UsersStore is the slice of the user store the account endpoints need.
type UsersStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) error
	SetProfilePic(ctx context.Context, id, url string) error
	SetResume(ctx context.Context, id, url string) error
	List(ctx context.Context, params url.Values) ([]map[string]any, int, error)
	DeleteCascade(ctx context.Context, id string) ([]string, error)
}

// ActivityJobs is what the role-dependent activity endpoints need from the
// posting store.
type ActivityJobs interface {
	AppliedBy(ctx context.Context, userID string) ([]job.Job, error)
	PublishedBy(ctx context.Context, userID string) ([]job.Summary, error)
}

type UserHandler struct {
	users      UsersStore
	jobs       ActivityJobs
	store      storage.Uploader
	production bool
	respond    apperrors.Responder
}

func NewUserHandler(users UsersStore, jobs ActivityJobs, store storage.Uploader,
	production bool, respond apperrors.Responder) *UserHandler {
	return &UserHandler{
		users:      users,
		jobs:       jobs,
		store:      store,
		production: production,
		respond:    respond,
	}
}

// Profile returns the caller's account. Employers also get their published
// postings in slim form.
func (h *UserHandler) Profile(ctx *gin.Context) {
	id, _ := middlewares.UserIDFromContext(ctx)

	u, err := h.users.GetByID(ctx.Request.Context(), id)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	payload := gin.H{
		"success": true,
		"data":    u,
	}

	if u.Role == user.RoleEmployer {
		published, err := h.jobs.PublishedBy(ctx.Request.Context(), id)
		if err != nil {
			h.respond.Respond(ctx, apperrors.Internal(err))
			return
		}
		payload["jobsPublished"] = published
	}

	ctx.JSON(http.StatusOK, payload)
}

type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required,max=50"`
	Email string `json:"email" binding:"required,email"`
}

// UpdateProfile changes name and email. A multipart request may carry a new
// profile picture alongside the fields.
func (h *UserHandler) UpdateProfile(ctx *gin.Context) {
	var req UpdateProfileRequest
	multipart := strings.HasPrefix(ctx.ContentType(), "multipart/form-data")
	if multipart {
		req.Name = strings.TrimSpace(ctx.PostForm("name"))
		req.Email = strings.TrimSpace(ctx.PostForm("email"))
		if !ValidateStruct(ctx, &req, h.respond) {
			return
		}
	} else if !BindJSON(ctx, &req, h.respond) {
		return
	}

	id, _ := middlewares.UserIDFromContext(ctx)

	if err := h.users.UpdateProfile(ctx.Request.Context(), id, req.Name, req.Email); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			h.respond.Respond(ctx, apperrors.Conflict("Email address is already registered."))
			return
		}
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	if multipart {
		if _, err := ctx.FormFile("file"); err == nil {
			_, appErr := h.replaceFile(ctx, storage.ProfilePictureRule, "photos/",
				h.users.SetProfilePic, func(u user.User) string { return u.ProfilePic })
			if appErr != nil {
				h.respond.Respond(ctx, appErr)
				return
			}
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated.",
	})
}

// UploadResume stores a job seeker's resume, replacing any previous one.
func (h *UserHandler) UploadResume(ctx *gin.Context) {
	fileURL, appErr := h.replaceFile(ctx, storage.ResumeRule, "resumes/",
		h.users.SetResume, func(u user.User) string { return u.Resume })
	if appErr != nil {
		h.respond.Respond(ctx, appErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "File uploaded.",
		"data":    gin.H{"url": fileURL},
	})
}

// replaceFile uploads the "file" form part, removes the previously stored
// object and records the new URL on the account.
func (h *UserHandler) replaceFile(ctx *gin.Context, rule storage.FileRule, prefix string,
	set func(context.Context, string, string) error, current func(user.User) string) (string, *apperrors.AppError) {
	id, _ := middlewares.UserIDFromContext(ctx)

	filename, data, appErr := readFormFile(ctx, "file", rule)
	if appErr != nil {
		return "", appErr
	}

	key := prefix + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	fileURL, err := h.store.Save(ctx.Request.Context(), key, storage.ContentType(filename), data)
	if err != nil {
		return "", apperrors.Internal(err)
	}

	if u, err := h.users.GetByID(ctx.Request.Context(), id); err == nil {
		h.removeStored(ctx, current(u))
	}

	if err := set(ctx.Request.Context(), id, fileURL); err != nil {
		return "", apperrors.Internal(err)
	}
	return fileURL, nil
}

// DeleteSelf removes the caller's account, everything hanging off it, and
// the stored files. Ends the session by expiring the cookie.
func (h *UserHandler) DeleteSelf(ctx *gin.Context) {
	id, _ := middlewares.UserIDFromContext(ctx)

	u, err := h.users.GetByID(ctx.Request.Context(), id)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	files, err := h.users.DeleteCascade(ctx.Request.Context(), id)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	h.removeStored(ctx, u.Resume)
	h.removeStored(ctx, u.ProfilePic)
	for _, f := range files {
		h.removeStored(ctx, f)
	}

	if h.production {
		ctx.SetSameSite(http.SameSiteNoneMode)
	} else {
		ctx.SetSameSite(http.SameSiteLaxMode)
	}
	ctx.SetCookie(middlewares.SessionCookie, "", -1, "/", "", h.production, true)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Your account has been deleted.",
	})
}

// AppliedJobs lists the postings the job seeker has applied to.
func (h *UserHandler) AppliedJobs(ctx *gin.Context) {
	id, _ := middlewares.UserIDFromContext(ctx)

	jobs, err := h.jobs.AppliedBy(ctx.Request.Context(), id)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": len(jobs),
		"data":    jobs,
	})
}

// PublishedJobs lists the employer's own postings.
func (h *UserHandler) PublishedJobs(ctx *gin.Context) {
	id, _ := middlewares.UserIDFromContext(ctx)

	published, err := h.jobs.PublishedBy(ctx.Request.Context(), id)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": len(published),
		"data":    published,
	})
}

// Activity is role-dependent: job seekers get the postings they applied to,
// employers their own postings. Admins have no activity feed.
func (h *UserHandler) Activity(ctx *gin.Context) {
	role, _ := middlewares.RoleFromContext(ctx)
	switch role {
	case user.RoleUser:
		h.AppliedJobs(ctx)
	case user.RoleEmployer:
		h.PublishedJobs(ctx)
	default:
		h.respond.Respond(ctx, apperrors.Forbidden(
			fmt.Sprintf("Role(%s) is not allowed to access this resource.", role)))
	}
}

// AdminList pages through all accounts via the query pipeline.
func (h *UserHandler) AdminList(ctx *gin.Context) {
	rows, total, err := h.users.List(ctx.Request.Context(), ctx.Request.URL.Query())
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": len(rows),
		"total":   total,
		"data":    rows,
	})
}

// Get exposes the public subset of any account to signed-in callers.
func (h *UserHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	u, err := h.users.GetByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.respond.Respond(ctx, apperrors.NotFound("User not found with id: "+id))
			return
		}
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"name":       u.Name,
			"email":      u.Email,
			"profilePic": u.ProfilePic,
			"resume":     u.Resume,
		},
	})
}

func (h *UserHandler) AdminDelete(ctx *gin.Context) {
	id := ctx.Param("id")

	u, err := h.users.GetByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.respond.Respond(ctx, apperrors.NotFound("User not found with id: "+id))
			return
		}
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	files, err := h.users.DeleteCascade(ctx.Request.Context(), id)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	h.removeStored(ctx, u.Resume)
	h.removeStored(ctx, u.ProfilePic)
	for _, f := range files {
		h.removeStored(ctx, f)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User is deleted.",
	})
}

func (h *UserHandler) removeStored(ctx *gin.Context, fileURL string) {
	if fileURL == "" {
		return
	}
	key := h.store.KeyFromURL(fileURL)
	if key == "" {
		return
	}
	if err := h.store.Delete(ctx.Request.Context(), key); err != nil {
		slog.Default().WarnContext(ctx.Request.Context(), "file cleanup failed",
			"key", key, "err", err)
	}
}
