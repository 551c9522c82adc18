package job

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// DefaultDeadline is how long a posting stays open when no explicit
// application deadline is given.
const DefaultDeadline = 7 * 24 * time.Hour

func NewFromCreateRequest(req CreateJobRequest, userID string, loc *Location) Job {
	now := time.Now().UTC()

	positions := req.Positions
	if positions == 0 {
		positions = 1
	}

	lastDate := now.Add(DefaultDeadline)
	if req.LastDate != nil {
		lastDate = req.LastDate.UTC()
	}

	return Job{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Slug:         slug.Make(req.Title),
		Description:  req.Description,
		Email:        req.Email,
		Address:      req.Address,
		Location:     loc,
		Company:      req.Company,
		Industry:     req.Industry,
		JobType:      req.JobType,
		MinEducation: req.MinEducation,
		Positions:    positions,
		Experience:   req.Experience,
		Salary:       req.Salary,
		PostingDate:  now,
		LastDate:     lastDate,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ApplyUpdate folds a full update payload into an existing job, re-slugging
// when the title changed. Location handling stays with the caller since it
// may involve a geocoding round-trip.
func (j Job) ApplyUpdate(req UpdateJobRequest, loc *Location) Job {
	if req.Title != j.Title {
		j.Slug = slug.Make(req.Title)
	}

	j.Title = req.Title
	j.Description = req.Description
	j.Email = req.Email
	j.Address = req.Address
	j.Company = req.Company
	j.Industry = req.Industry
	j.JobType = req.JobType
	j.MinEducation = req.MinEducation
	j.Experience = req.Experience
	j.Salary = req.Salary

	if req.Positions > 0 {
		j.Positions = req.Positions
	}

	if req.LastDate != nil {
		j.LastDate = req.LastDate.UTC()
	}

	if loc != nil {
		j.Location = loc
	}

	j.UpdatedAt = time.Now().UTC()

	return j
}
