package models

import "time"

// Comment is a user comment attached to a photo.
type Comment struct {
	ID        string    `db:"id" json:"id"`
	PhotoID   string    `db:"photo_id" json:"photo_id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CommentView includes the author's username for display.
type CommentView struct {
	Comment
	AuthorUsername string `json:"author_username"`
}

// CommentFilter captures filtering criteria for listing comments.
type CommentFilter struct {
	PhotoID  string
	Page     int
	PageSize int
}
