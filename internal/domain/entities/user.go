package entities

import (
	"time"
)

// Roles recognised by the authorization service.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Profile is the locally stored record of an authenticated user
type Profile struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Principal is the caller identity extracted from a verified access token.
type Principal struct {
	UserID       string `json:"id"`
	Email        string `json:"email"`
	AppRole      string `json:"-"`
	MetadataRole string `json:"-"`
	// Role is filled in by the authorization service.
	Role string `json:"role"`
}

// IsAdmin reports whether the resolved role is admin.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
