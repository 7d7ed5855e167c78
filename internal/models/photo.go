package models

import "time"

// Photo represents an uploaded image and its stored derivatives.
type Photo struct {
	ID            string    `db:"id" json:"id"`
	AuthorID      string    `db:"author_id" json:"author_id"`
	Description   string    `db:"description" json:"description"`
	StoragePath   string    `db:"storage_path" json:"-"`
	ThumbnailPath string    `db:"thumbnail_path" json:"-"`
	ContentType   string    `db:"content_type" json:"content_type"`
	SizeBytes     int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PhotoView is a photo with its tags and time-limited download URLs.
type PhotoView struct {
	Photo
	AuthorUsername string    `json:"author_username"`
	Tags           []string  `json:"tags"`
	URL            string    `json:"url"`
	ThumbnailURL   string    `json:"thumbnail_url"`
	URLExpiresAt   time.Time `json:"url_expires_at"`
}

// PhotoFilter captures filtering criteria for listing photos.
type PhotoFilter struct {
	AuthorUsername string
	Tag            string
	Page           int
	PageSize       int
}

// Tag names a reusable photo label.
type Tag struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
