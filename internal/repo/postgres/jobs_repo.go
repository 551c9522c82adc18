package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobscout/jobscout/internal/domain/job"
	"github.com/jobscout/jobscout/internal/observability"
	"github.com/jobscout/jobscout/internal/query"
)

// jobFields is the allow-list for the posting listing pipeline. Applicants
// live in their own table and can never be projected through it.
var jobFields = map[string]query.Field{
	"id":           {Column: "id"},
	"title":        {Column: "title"},
	"slug":         {Column: "slug"},
	"description":  {Column: "description"},
	"email":        {Column: "email"},
	"address":      {Column: "address"},
	"location":     {Column: "location"},
	"company":      {Column: "company"},
	"industry":     {Column: "industry", Kind: query.KindArray},
	"jobType":      {Column: "job_type"},
	"minEducation": {Column: "min_education"},
	"positions":    {Column: "positions", Kind: query.KindNumber},
	"experience":   {Column: "experience"},
	"salary":       {Column: "salary", Kind: query.KindNumber},
	"postingDate":  {Column: "posting_date", Kind: query.KindTime},
	"lastDate":     {Column: "last_date", Kind: query.KindTime},
	"userId":       {Column: "user_id"},
	"createdAt":    {Column: "created_at", Kind: query.KindTime},
	"updatedAt":    {Column: "updated_at", Kind: query.KindTime},
}

var jobDefaultCols = []string{
	"id", "title", "slug", "description", "email", "address", "location",
	"company", "industry", "job_type", "min_education", "positions",
	"experience", "salary", "posting_date", "last_date", "user_id",
}

const jobSearchExpr = "to_tsvector('english', title)"

type JobsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{pool: pool, prom: prom}
}

const jobCols = `id, title, slug, description, COALESCE(email, ''), address,
	location, company, industry, job_type, min_education, positions,
	experience, salary, posting_date, last_date, user_id, created_at, updated_at`

func scanJob(row pgx.Row) (job.Job, error) {
	var j job.Job
	err := row.Scan(&j.ID, &j.Title, &j.Slug, &j.Description, &j.Email,
		&j.Address, &j.Location, &j.Company, &j.Industry, &j.JobType,
		&j.MinEducation, &j.Positions, &j.Experience, &j.Salary,
		&j.PostingDate, &j.LastDate, &j.UserID, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

func (r *JobsRepo) Create(ctx context.Context, j job.Job) error {
	return r.prom.ObserveDB("jobs.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO jobs (id, title, slug, description, email, address,
				location, company, industry, job_type, min_education,
				positions, experience, salary, posting_date, last_date, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
				$14, $15, $16, $17)`,
			j.ID, j.Title, j.Slug, j.Description, j.Email, j.Address,
			j.Location, j.Company, j.Industry, j.JobType, j.MinEducation,
			j.Positions, j.Experience, j.Salary, j.PostingDate, j.LastDate,
			j.UserID)
		return err
	})
}

// List runs the public search through the query pipeline and returns the
// matching page plus the total match count.
func (r *JobsRepo) List(ctx context.Context, params url.Values) ([]map[string]any, int, error) {
	b := query.New(jobFields, jobDefaultCols, "posting_date DESC", jobSearchExpr).Apply(params)

	var (
		rows  []map[string]any
		total int
	)
	err := r.prom.ObserveDB("jobs.list", func() error {
		where, args := b.WhereClause()

		if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM jobs"+where, args...).Scan(&total); err != nil {
			return err
		}

		sql := fmt.Sprintf("SELECT %s FROM jobs%s ORDER BY %s LIMIT %d OFFSET %d",
			b.Columns(), where, b.OrderBy(), b.Limit(), b.Offset())

		res, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer res.Close()

		rows, err = collectMaps(res, jobFields)
		return err
	})
	return rows, total, err
}

func (r *JobsRepo) GetByID(ctx context.Context, id string) (job.Job, error) {
	var j job.Job
	err := r.prom.ObserveDB("jobs.get_by_id", func() error {
		var err error
		j, err = scanJob(r.pool.QueryRow(ctx,
			`SELECT `+jobCols+` FROM jobs WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return job.ErrNotFound
		}
		return err
	})
	return j, err
}

// GetByIDAndSlug is the public single-posting read. Both parts must match.
func (r *JobsRepo) GetByIDAndSlug(ctx context.Context, id, slug string) (job.Job, error) {
	var j job.Job
	err := r.prom.ObserveDB("jobs.get_by_id_and_slug", func() error {
		var err error
		j, err = scanJob(r.pool.QueryRow(ctx,
			`SELECT `+jobCols+` FROM jobs WHERE id = $1 AND slug = $2`, id, slug))
		if errors.Is(err, pgx.ErrNoRows) {
			return job.ErrNotFound
		}
		return err
	})
	return j, err
}

// LoadApplicants attaches the application list to a posting. Callers gate
// this behind ownership, the public read never sees it.
func (r *JobsRepo) LoadApplicants(ctx context.Context, jobID string) ([]job.Applicant, error) {
	apps := make([]job.Applicant, 0)
	err := r.prom.ObserveDB("jobs.load_applicants", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT user_id, resume, applied_at FROM applications
			WHERE job_id = $1 ORDER BY applied_at`, jobID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var a job.Applicant
			if err := rows.Scan(&a.UserID, &a.Resume, &a.AppliedAt); err != nil {
				return err
			}
			apps = append(apps, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *JobsRepo) Update(ctx context.Context, j job.Job) error {
	return r.prom.ObserveDB("jobs.update", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE jobs SET title = $2, slug = $3, description = $4,
				email = $5, address = $6, location = $7, company = $8,
				industry = $9, job_type = $10, min_education = $11,
				positions = $12, experience = $13, salary = $14,
				last_date = $15, updated_at = now()
			WHERE id = $1`,
			j.ID, j.Title, j.Slug, j.Description, j.Email, j.Address,
			j.Location, j.Company, j.Industry, j.JobType, j.MinEducation,
			j.Positions, j.Experience, j.Salary, j.LastDate)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return job.ErrNotFound
		}
		return nil
	})
}

// Delete removes a posting; its applications go with it via the FK. Returns
// the applicant resume URLs so object storage can be cleaned afterwards.
func (r *JobsRepo) Delete(ctx context.Context, id string) ([]string, error) {
	var files []string
	err := r.prom.ObserveDB("jobs.delete", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT resume FROM applications WHERE job_id = $1`, id)
		if err != nil {
			return err
		}
		for rows.Next() {
			var f string
			if err := rows.Scan(&f); err != nil {
				rows.Close()
				return err
			}
			files = append(files, f)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		tag, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return job.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Apply records an application inside one transaction: the posting row is
// locked, the deadline checked, and the unique (job_id, user_id) constraint
// closes the double-submit race.
func (r *JobsRepo) Apply(ctx context.Context, jobID, userID, resume string) error {
	return r.prom.ObserveDB("jobs.apply", func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		var lastDate time.Time
		err = tx.QueryRow(ctx,
			`SELECT last_date FROM jobs WHERE id = $1 FOR UPDATE`, jobID).Scan(&lastDate)
		if errors.Is(err, pgx.ErrNoRows) {
			return job.ErrNotFound
		}
		if err != nil {
			return err
		}

		if time.Now().After(lastDate) {
			return job.ErrDeadlinePassed
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO applications (job_id, user_id, resume)
			VALUES ($1, $2, $3)`, jobID, userID, resume)
		if isUniqueViolation(err) {
			return job.ErrAlreadyApplied
		}
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

// AppliedBy lists the postings a job seeker applied to, each carrying only
// that seeker's own application entry.
func (r *JobsRepo) AppliedBy(ctx context.Context, userID string) ([]job.Job, error) {
	jobs := make([]job.Job, 0)
	err := r.prom.ObserveDB("jobs.applied_by", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT j.id, j.title, j.slug, j.description, COALESCE(j.email, ''),
				j.address, j.location, j.company, j.industry, j.job_type,
				j.min_education, j.positions, j.experience, j.salary,
				j.posting_date, j.last_date, j.user_id, j.created_at,
				j.updated_at, a.resume, a.applied_at
			FROM jobs j
			JOIN applications a ON a.job_id = j.id
			WHERE a.user_id = $1
			ORDER BY a.applied_at DESC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				j job.Job
				a job.Applicant
			)
			err := rows.Scan(&j.ID, &j.Title, &j.Slug, &j.Description,
				&j.Email, &j.Address, &j.Location, &j.Company, &j.Industry,
				&j.JobType, &j.MinEducation, &j.Positions, &j.Experience,
				&j.Salary, &j.PostingDate, &j.LastDate, &j.UserID,
				&j.CreatedAt, &j.UpdatedAt, &a.Resume, &a.AppliedAt)
			if err != nil {
				return err
			}
			a.UserID = userID
			j.Applicants = []job.Applicant{a}
			jobs = append(jobs, j)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// PublishedBy lists an employer's own postings in slim form.
func (r *JobsRepo) PublishedBy(ctx context.Context, userID string) ([]job.Summary, error) {
	out := make([]job.Summary, 0)
	err := r.prom.ObserveDB("jobs.published_by", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, title, slug, posting_date FROM jobs
			WHERE user_id = $1 ORDER BY posting_date DESC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s job.Summary
			if err := rows.Scan(&s.ID, &s.Title, &s.Slug, &s.PostingDate); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats aggregates salary and headcount per experience bracket across the
// postings matching a search topic.
func (r *JobsRepo) Stats(ctx context.Context, topic string) ([]job.Stat, error) {
	out := make([]job.Stat, 0)
	err := r.prom.ObserveDB("jobs.stats", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT experience, count(*), avg(positions), avg(salary),
				min(salary), max(salary)
			FROM jobs
			WHERE `+jobSearchExpr+` @@ phraseto_tsquery('english', $1)
			GROUP BY experience`, topic)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s job.Stat
			err := rows.Scan(&s.Experience, &s.TotalJobs, &s.AvgPositions,
				&s.AvgSalary, &s.MinSalary, &s.MaxSalary)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
