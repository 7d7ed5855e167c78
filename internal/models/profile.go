package models

import "time"

// Profile stores the optional personal data attached to an account.
type Profile struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  *string    `db:"last_name" json:"last_name,omitempty"`
	Birthday  *time.Time `db:"birthday" json:"birthday,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName concatenates first and last name, skipping an absent last name.
func (p *Profile) FullName() string {
	if p.LastName == nil || *p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + *p.LastName
}

// ProfileView is the public shape of a profile including activity counts.
type ProfileView struct {
	Username     string     `json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     *string    `json:"last_name,omitempty"`
	FullName     string     `json:"full_name"`
	Birthday     *time.Time `json:"birthday,omitempty"`
	Role         UserRole   `json:"role"`
	RegisteredAt time.Time  `json:"registered_at"`
	PhotoCount   int        `json:"photos"`
	CommentCount int        `json:"comments"`
}
