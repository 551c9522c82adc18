package user

import (
	"errors"
	"time"
)

// Role is the closed set of account roles. Handlers never compare raw
// strings; the authorization middleware works on this type only.
type Role string

const (
	RoleUser     Role = "user"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleEmployer, RoleAdmin:
		return true
	default:
		return false
	}
}

// Registerable reports whether self-registration may claim this role.
// Admin accounts are seeded at startup, never registered.
func (r Role) Registerable() bool {
	return r == RoleUser || r == RoleEmployer
}

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	Role         Role       `json:"role"`
	ProfilePic   string     `json:"profilePic,omitempty"`
	Resume       string     `json:"resume,omitempty"`
	ResetToken   string     `json:"-"` // sha256 of the raw token, not the token
	ResetExpire  *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already taken")
)
