package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/photoshare/photoshare-api/internal/models"
)

// PhotoRepository provides database access for photos and their tags.
type PhotoRepository struct {
	db *sqlx.DB
}

// NewPhotoRepository creates a new instance of PhotoRepository.
func NewPhotoRepository(db *sqlx.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

const photoColumns = `id, author_id, description, storage_path, thumbnail_path, content_type, size_bytes, created_at, updated_at`

// Create inserts a photo row.
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if photo.CreatedAt.IsZero() {
		photo.CreatedAt = now
	}
	photo.UpdatedAt = now

	const query = `INSERT INTO photos (id, author_id, description, storage_path, thumbnail_path, content_type, size_bytes, created_at, updated_at) VALUES (:id, :author_id, :description, :storage_path, :thumbnail_path, :content_type, :size_bytes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, photo); err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	return nil
}

// FindByID returns a photo by identifier.
func (r *PhotoRepository) FindByID(ctx context.Context, id string) (*models.Photo, error) {
	query := fmt.Sprintf(`SELECT %s FROM photos WHERE id = $1 LIMIT 1`, photoColumns)
	var photo models.Photo
	if err := r.db.GetContext(ctx, &photo, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find photo by id: %w", err)
	}
	return &photo, nil
}

// UpdateDescription rewrites the photo description.
func (r *PhotoRepository) UpdateDescription(ctx context.Context, id, description string) error {
	const query = `UPDATE photos SET description = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, description, time.Now().UTC()); err != nil {
		return fmt.Errorf("update photo description: %w", err)
	}
	return nil
}

// Delete removes a photo row; comments and tag links cascade.
func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM photos WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// List returns photos matching the filter with total count.
func (r *PhotoRepository) List(ctx context.Context, filter models.PhotoFilter) ([]models.Photo, int, error) {
	baseQuery := `FROM photos p WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.AuthorUsername != "" {
		conditions = append(conditions, fmt.Sprintf("p.author_id = (SELECT id FROM users WHERE username = $%d)", len(args)+1))
		args = append(args, filter.AuthorUsername)
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM photo_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.photo_id = p.id AND t.name = $%d)", len(args)+1))
		args = append(args, strings.ToLower(filter.Tag))
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	cols := strings.ReplaceAll(photoColumns, ", ", ", p.")
	listQuery := fmt.Sprintf("SELECT p.%s %s ORDER BY p.created_at DESC LIMIT %d OFFSET %d", cols, baseQuery, pageSize, offset)

	var photos []models.Photo
	if err := r.db.SelectContext(ctx, &photos, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list photos: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count photos: %w", err)
	}

	return photos, total, nil
}

// ReplaceTags rewrites the photo's tag set, creating unseen tags lazily.
func (r *PhotoRepository) ReplaceTags(ctx context.Context, photoID string, names []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tags: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM photo_tags WHERE photo_id = $1`, photoID); err != nil {
		return fmt.Errorf("clear photo tags: %w", err)
	}

	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		var tagID string
		const upsert = `INSERT INTO tags (id, name) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`
		if err := tx.GetContext(ctx, &tagID, upsert, uuid.NewString(), name); err != nil {
			return fmt.Errorf("upsert tag: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO photo_tags (photo_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, photoID, tagID); err != nil {
			return fmt.Errorf("link tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tags: %w", err)
	}
	return nil
}

// TagsFor returns the tag names attached to a photo.
func (r *PhotoRepository) TagsFor(ctx context.Context, photoID string) ([]string, error) {
	const query = `SELECT t.name FROM tags t JOIN photo_tags pt ON pt.tag_id = t.id WHERE pt.photo_id = $1 ORDER BY t.name`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, photoID); err != nil {
		return nil, fmt.Errorf("photo tags: %w", err)
	}
	return names, nil
}

// ListTags returns all known tags.
func (r *PhotoRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	const query = `SELECT id, name FROM tags ORDER BY name`
	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// AuthorUsername resolves the username for a photo author.
func (r *PhotoRepository) AuthorUsername(ctx context.Context, userID string) (string, error) {
	const query = `SELECT username FROM users WHERE id = $1`
	var username string
	if err := r.db.GetContext(ctx, &username, query, userID); err != nil {
		return "", fmt.Errorf("photo author: %w", err)
	}
	return username, nil
}
