package job

import (
	"errors"
	"fmt"
	"time"
)

type Job struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Description  string      `json:"description"`
	Email        string      `json:"email,omitempty"`
	Address      string      `json:"address"`
	Location     *Location   `json:"location,omitempty"`
	Company      string      `json:"company"`
	Industry     []string    `json:"industry"`
	JobType      string      `json:"jobType"`
	MinEducation string      `json:"minEducation"`
	Positions    int         `json:"positions"`
	Experience   string      `json:"experience"`
	Salary       int64       `json:"salary"`
	PostingDate  time.Time   `json:"postingDate"`
	LastDate     time.Time   `json:"lastDate"`
	Applicants   []Applicant `json:"applicants,omitempty"` // loaded only for employer/admin reads
	UserID       string      `json:"userId"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Location holds the forward-geocoded coordinates for the address.
type Location struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Formatted string  `json:"formatted,omitempty"`
}

type Applicant struct {
	UserID    string    `json:"userId"`
	Resume    string    `json:"resume"`
	AppliedAt time.Time `json:"appliedAt"`
}

// Summary is the slim shape embedded in employer profiles.
type Summary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	PostingDate time.Time `json:"postingDate"`
}

// Stat is one row of the per-experience aggregate for a search topic.
type Stat struct {
	Experience   string  `json:"experience"`
	TotalJobs    int     `json:"totalJobs"`
	AvgPositions float64 `json:"avgPositions"`
	AvgSalary    float64 `json:"avgSalary"`
	MinSalary    int64   `json:"minSalary"`
	MaxSalary    int64   `json:"maxSalary"`
}

var (
	ErrNotFound       = errors.New("job not found")
	ErrDeadlinePassed = errors.New("job is no longer accepting applications")
	ErrAlreadyApplied = errors.New("already applied to this job")
)

var industries = []string{
	"Business",
	"Information Technology",
	"Banking",
	"Education/Training",
	"Telecommunication",
	"Others",
}

var jobTypes = []string{"Permanent", "Temporary", "Internship"}

var educationLevels = []string{"High School", "Bachelors", "Masters", "Phd"}

var experienceBrackets = []string{
	"0 Years / Fresher",
	"1 Year - 2 Years",
	"2 Years - 5 Years",
	"More than 5 Years",
}

type CreateJobRequest struct {
	Title        string     `json:"title" binding:"required,max=100"`
	Description  string     `json:"description" binding:"required,max=1000"`
	Email        string     `json:"email" binding:"omitempty,email"`
	Address      string     `json:"address" binding:"required"`
	Company      string     `json:"company" binding:"required"`
	Industry     []string   `json:"industry" binding:"required,min=1"`
	JobType      string     `json:"jobType" binding:"required"`
	MinEducation string     `json:"minEducation" binding:"required"`
	Positions    int        `json:"positions" binding:"omitempty,min=1"`
	Experience   string     `json:"experience" binding:"required"`
	Salary       int64      `json:"salary" binding:"required,min=1"`
	LastDate     *time.Time `json:"lastDate" binding:"omitempty"`
}

// A full update payload, same shape as create. Partial updates were never
// part of the API surface.
type UpdateJobRequest = CreateJobRequest

// ValidateEnums checks the enumerated fields. The binding layer cannot do
// it because the allowed values contain spaces, which oneof chokes on.
func (r CreateJobRequest) ValidateEnums() error {
	for _, ind := range r.Industry {
		if !contains(industries, ind) {
			return fmt.Errorf("please select a valid industry, got %q", ind)
		}
	}

	if !contains(jobTypes, r.JobType) {
		return fmt.Errorf("please select a valid job type, got %q", r.JobType)
	}

	if !contains(educationLevels, r.MinEducation) {
		return fmt.Errorf("please select a valid education level, got %q", r.MinEducation)
	}

	if !contains(experienceBrackets, r.Experience) {
		return fmt.Errorf("please select a valid experience bracket, got %q", r.Experience)
	}

	return nil
}

func contains(allowed []string, v string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
