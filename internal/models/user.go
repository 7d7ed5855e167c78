package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

// User represents an application account stored in the users table.
type User struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	LoggedIn       bool      `db:"logged_in" json:"logged_in"`
	EmailConfirmed bool      `db:"email_confirmed" json:"email_confirmed"`
	Role           UserRole  `db:"role" json:"role"`
	RegisteredAt   time.Time `db:"registered_at" json:"registered_at"`
}

// PublicUser is the account summary returned by registration and lookups.
// It deliberately omits the password hash and internal identifier.
type PublicUser struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           UserRole  `json:"role"`
	EmailConfirmed bool      `json:"email_confirmed"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// Public converts a stored user into its external summary.
func (u *User) Public() PublicUser {
	return PublicUser{
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		EmailConfirmed: u.EmailConfirmed,
		RegisteredAt:   u.RegisteredAt,
	}
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
