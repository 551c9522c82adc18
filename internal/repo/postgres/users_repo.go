package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobscout/jobscout/internal/domain/user"
	"github.com/jobscout/jobscout/internal/observability"
	"github.com/jobscout/jobscout/internal/query"
)

// userFields is the allow-list the account listing pipeline works from.
// Credentials and reset state are deliberately absent.
var userFields = map[string]query.Field{
	"id":        {Column: "id"},
	"name":      {Column: "name"},
	"email":     {Column: "email"},
	"role":      {Column: "role"},
	"createdAt": {Column: "created_at", Kind: query.KindTime},
}

var userDefaultCols = []string{"id", "name", "email", "role", "created_at"}

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

const userCols = `id, name, email, password_hash, role,
	COALESCE(profile_pic, ''), COALESCE(resume, ''),
	COALESCE(reset_token, ''), reset_expire, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.ProfilePic, &u.Resume, &u.ResetToken, &u.ResetExpire,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	return r.prom.ObserveDB("users.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO users (id, name, email, password_hash, role)
			VALUES ($1, $2, $3, $4, $5)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Role)

		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return err
	})
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := r.prom.ObserveDB("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userCols+` FROM users WHERE email = $1`, email))
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		return err
	})
	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	err := r.prom.ObserveDB("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userCols+` FROM users WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		return err
	})
	return u, err
}

// UpdateProfile changes name and email only. A taken email surfaces as
// ErrEmailTaken, same as on registration.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id, name, email string) error {
	return r.prom.ObserveDB("users.update_profile", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE users SET name = $2, email = $3, updated_at = now()
			WHERE id = $1`, id, name, email)

		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.prom.ObserveDB("users.update_password", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE users SET password_hash = $2, updated_at = now()
			WHERE id = $1`, id, passwordHash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

func (r *UsersRepo) SetProfilePic(ctx context.Context, id, urlStr string) error {
	return r.prom.ObserveDB("users.set_profile_pic", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE users SET profile_pic = $2, updated_at = now()
			WHERE id = $1`, id, urlStr)
		return err
	})
}

func (r *UsersRepo) SetResume(ctx context.Context, id, urlStr string) error {
	return r.prom.ObserveDB("users.set_resume", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE users SET resume = $2, updated_at = now()
			WHERE id = $1`, id, urlStr)
		return err
	})
}

// SetResetToken stores the token hash and its expiry for the account.
// ResetPassword writes the new hash and invalidates the reset token in the
// same statement, so a used token can never outlive the password change.
func (r *UsersRepo) ResetPassword(ctx context.Context, id, passwordHash string) error {
	return r.prom.ObserveDB("users.reset_password", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE users SET password_hash = $2, reset_token = NULL,
				reset_expire = NULL, updated_at = now()
			WHERE id = $1`, id, passwordHash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

func (r *UsersRepo) SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	return r.prom.ObserveDB("users.set_reset_token", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE users SET reset_token = $2, reset_expire = $3, updated_at = now()
			WHERE id = $1`, id, tokenHash, expire)
		return err
	})
}

func (r *UsersRepo) ClearResetToken(ctx context.Context, id string) error {
	return r.prom.ObserveDB("users.clear_reset_token", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE users SET reset_token = NULL, reset_expire = NULL, updated_at = now()
			WHERE id = $1`, id)
		return err
	})
}

// GetByResetToken matches a token hash that has not expired yet. An expired
// or unknown token is simply not found.
func (r *UsersRepo) GetByResetToken(ctx context.Context, tokenHash string) (user.User, error) {
	var u user.User
	err := r.prom.ObserveDB("users.get_by_reset_token", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `
			SELECT `+userCols+` FROM users
			WHERE reset_token = $1 AND reset_expire > now()`, tokenHash))
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		return err
	})
	return u, err
}

// List runs the account listing through the query pipeline. Rows come back
// as generic maps keyed by API field names so a fields= projection shapes
// the response directly.
func (r *UsersRepo) List(ctx context.Context, params url.Values) ([]map[string]any, int, error) {
	b := query.New(userFields, userDefaultCols, "created_at DESC", "").Apply(params)

	var (
		rows  []map[string]any
		total int
	)
	err := r.prom.ObserveDB("users.list", func() error {
		where, args := b.WhereClause()

		if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM users"+where, args...).Scan(&total); err != nil {
			return err
		}

		sql := fmt.Sprintf("SELECT %s FROM users%s ORDER BY %s LIMIT %d OFFSET %d",
			b.Columns(), where, b.OrderBy(), b.Limit(), b.Offset())

		res, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer res.Close()

		rows, err = collectMaps(res, userFields)
		return err
	})
	return rows, total, err
}

// DeleteCascade removes an account and everything hanging off it in one
// transaction: an employer's postings go first (their applications follow
// via the FK), then the account's own applications, then the account.
// Returns the stored file URLs that should be cleaned out of object storage.
func (r *UsersRepo) DeleteCascade(ctx context.Context, id string) ([]string, error) {
	var files []string
	err := r.prom.ObserveDB("users.delete_cascade", func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		res, err := tx.Query(ctx, `
			SELECT resume FROM applications
			WHERE job_id IN (SELECT id FROM jobs WHERE user_id = $1)`, id)
		if err != nil {
			return err
		}
		for res.Next() {
			var f string
			if err := res.Scan(&f); err != nil {
				res.Close()
				return err
			}
			files = append(files, f)
		}
		res.Close()
		if err := res.Err(); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM jobs WHERE user_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM applications WHERE user_id = $1`, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
