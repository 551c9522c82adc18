package handlers

import (
	"context"
	"errors"
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
	"github.com/jobscout/jobscout/internal/geo"
	"github.com/jobscout/jobscout/internal/http/middlewares"
	"github.com/jobscout/jobscout/internal/storage"
)

// JobsStore is the slice of the posting store the handlers need.
type JobsStore interface {
	Create(ctx context.Context, j job.Job) error
	List(ctx context.Context, params url.Values) ([]map[string]any, int, error)
	GetByID(ctx context.Context, id string) (job.Job, error)
	GetByIDAndSlug(ctx context.Context, id, slug string) (job.Job, error)
	LoadApplicants(ctx context.Context, jobID string) ([]job.Applicant, error)
	Update(ctx context.Context, j job.Job) error
	Delete(ctx context.Context, id string) ([]string, error)
	Apply(ctx context.Context, jobID, userID, resume string) error
	Stats(ctx context.Context, topic string) ([]job.Stat, error)
}

// ResumeLoader fetches the applicant's stored resume for the fallback path.
type ResumeLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type JobHandler struct {
	jobs    JobsStore
	users   ResumeLoader
	geo     geo.Geocoder
	store   storage.Uploader
	respond apperrors.Responder
}

func NewJobHandler(jobs JobsStore, users ResumeLoader, geocoder geo.Geocoder,
	store storage.Uploader, respond apperrors.Responder) *JobHandler {
	return &JobHandler{
		jobs:    jobs,
		users:   users,
		geo:     geocoder,
		store:   store,
		respond: respond,
	}
}

// List is the public search endpoint. The whole query string feeds the
// filter/sort/fields/search/pagination pipeline.
func (h *JobHandler) List(ctx *gin.Context) {
	rows, total, err := h.jobs.List(ctx.Request.Context(), ctx.Request.URL.Query())
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"success": true,
		"results": len(rows),
		"total":   total,
		"data":    rows,
	})
}

// Get fetches a single posting by id and slug. Employer and admin callers
// also receive the applicant list.
func (h *JobHandler) Get(ctx *gin.Context) {
	j, err := h.jobs.GetByIDAndSlug(ctx.Request.Context(), ctx.Param("id"), ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			h.respond.Respond(ctx, apperrors.NotFound("Job not found."))
			return
		}
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	if role, _ := middlewares.RoleFromContext(ctx); role == user.RoleEmployer || role == user.RoleAdmin {
		apps, err := h.jobs.LoadApplicants(ctx.Request.Context(), j.ID)
		if err != nil {
			h.respond.Respond(ctx, apperrors.Internal(err))
			return
		}
		j.Applicants = apps
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"success": true,
		"data":    j,
	})
}

func (h *JobHandler) Create(ctx *gin.Context) {
	var req job.CreateJobRequest
	if !BindJSON(ctx, &req, h.respond) {
		return
	}
	if err := req.ValidateEnums(); err != nil {
		h.respond.Respond(ctx, apperrors.Validation(err.Error()))
		return
	}

	loc, err := h.geo.Geocode(ctx.Request.Context(), req.Address)
	if err != nil {
		h.respond.Respond(ctx, err)
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	j := job.NewFromCreateRequest(req, userID, &loc)
	if err := h.jobs.Create(ctx.Request.Context(), j); err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job Created.",
		"data":    j,
	})
}

func (h *JobHandler) Update(ctx *gin.Context) {
	j, ok := h.ownedJob(ctx, "You are not allowed to update this job.")
	if !ok {
		return
	}

	var req job.UpdateJobRequest
	if !BindJSON(ctx, &req, h.respond) {
		return
	}
	if err := req.ValidateEnums(); err != nil {
		h.respond.Respond(ctx, apperrors.Validation(err.Error()))
		return
	}

	// Only hit the geocoder when the address actually changed.
	var loc *job.Location
	if req.Address != j.Address {
		resolved, err := h.geo.Geocode(ctx.Request.Context(), req.Address)
		if err != nil {
			h.respond.Respond(ctx, err)
			return
		}
		loc = &resolved
	}

	updated := j.ApplyUpdate(req, loc)
	if err := h.jobs.Update(ctx.Request.Context(), updated); err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job is updated.",
		"data":    updated,
	})
}

// Delete removes a posting and cleans its applicants' resumes out of object
// storage. Storage cleanup is best effort; the posting is already gone.
func (h *JobHandler) Delete(ctx *gin.Context) {
	j, ok := h.ownedJob(ctx, "You are not allowed to delete this job.")
	if !ok {
		return
	}

	files, err := h.jobs.Delete(ctx.Request.Context(), j.ID)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	for _, f := range files {
		if key := h.store.KeyFromURL(f); key != "" {
			if err := h.store.Delete(ctx.Request.Context(), key); err != nil {
				slog.Default().WarnContext(ctx.Request.Context(), "resume cleanup failed",
					"key", key, "err", err)
			}
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job is deleted.",
	})
}

// Applicants lists who applied to a posting. Owner or admin only.
func (h *JobHandler) Applicants(ctx *gin.Context) {
	j, ok := h.ownedJob(ctx, "You are not allowed to read applicants of this job.")
	if !ok {
		return
	}

	apps, err := h.jobs.LoadApplicants(ctx.Request.Context(), j.ID)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": len(apps),
		"data":    apps,
	})
}

// Apply records an application. The resume comes from a multipart upload,
// or from the profile when the request sets useExistingResume=true.
func (h *JobHandler) Apply(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	resumeURL, appErr := h.resumeForApplication(ctx, userID)
	if appErr != nil {
		h.respond.Respond(ctx, appErr)
		return
	}

	err := h.jobs.Apply(ctx.Request.Context(), ctx.Param("id"), userID, resumeURL)
	switch {
	case errors.Is(err, job.ErrNotFound):
		h.respond.Respond(ctx, apperrors.NotFound("Job not found."))
		return
	case errors.Is(err, job.ErrDeadlinePassed):
		h.respond.Respond(ctx, apperrors.Validation("You can not apply to this job. Date is over."))
		return
	case errors.Is(err, job.ErrAlreadyApplied):
		h.respond.Respond(ctx, apperrors.Conflict("You have already applied for this job."))
		return
	case err != nil:
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Applied to Job successfully.",
		"data":    gin.H{"resume": resumeURL},
	})
}

func (h *JobHandler) resumeForApplication(ctx *gin.Context, userID string) (string, *apperrors.AppError) {
	if _, err := ctx.FormFile("file"); err != nil {
		if ctx.PostForm("useExistingResume") != "true" {
			return "", apperrors.Validation("Please upload your resume.")
		}
		u, err := h.users.GetByID(ctx.Request.Context(), userID)
		if err != nil {
			return "", apperrors.Internal(err)
		}
		if u.Resume == "" {
			return "", apperrors.Validation("Please upload your resume.")
		}
		return u.Resume, nil
	}

	filename, data, appErr := readFormFile(ctx, "file", storage.ResumeRule)
	if appErr != nil {
		return "", appErr
	}

	key := "resumes/" + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	url, err := h.store.Save(ctx.Request.Context(), key, storage.ContentType(filename), data)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return url, nil
}

// Stats exposes the per-experience aggregate for a search topic.
func (h *JobHandler) Stats(ctx *gin.Context) {
	topic := ctx.Param("topic")

	stats, err := h.jobs.Stats(ctx.Request.Context(), topic)
	if err != nil {
		h.respond.Respond(ctx, apperrors.Internal(err))
		return
	}

	if len(stats) == 0 {
		h.respond.Respond(ctx, apperrors.NotFound("No stats found for - "+topic))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// ownedJob loads the posting and enforces that the caller owns it or is an
// admin.
func (h *JobHandler) ownedJob(ctx *gin.Context, denyMessage string) (job.Job, bool) {
	j, err := h.jobs.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			h.respond.Respond(ctx, apperrors.NotFound("Job not found."))
			return job.Job{}, false
		}
		h.respond.Respond(ctx, apperrors.Internal(err))
		return job.Job{}, false
	}

	userID, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)

	if j.UserID != userID && role != user.RoleAdmin {
		h.respond.Respond(ctx, apperrors.Forbidden(denyMessage))
		return job.Job{}, false
	}

	return j, true
}
