package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/photoshare/photoshare-api/internal/models"
)

// CommentRepository provides database access for photo comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new instance of CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentColumns = `id, photo_id, author_id, text, created_at, updated_at`

// Create inserts a comment row.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now

	const query = `INSERT INTO comments (id, photo_id, author_id, text, created_at, updated_at) VALUES (:id, :photo_id, :author_id, :text, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// FindByID returns a comment by identifier.
func (r *CommentRepository) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM comments WHERE id = $1 LIMIT 1`, commentColumns)
	var comment models.Comment
	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return &comment, nil
}

// UpdateText rewrites the comment body.
func (r *CommentRepository) UpdateText(ctx context.Context, id, text string) error {
	const query = `UPDATE comments SET text = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, text, time.Now().UTC()); err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

// Delete removes a comment row.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM comments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// ListByPhoto returns a photo's comments with author usernames and total count.
func (r *CommentRepository) ListByPhoto(ctx context.Context, filter models.CommentFilter) ([]models.CommentView, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT c.id, c.photo_id, c.author_id, c.text, c.created_at, c.updated_at, u.username AS author_username FROM comments c JOIN users u ON u.id = c.author_id WHERE c.photo_id = $1 ORDER BY c.created_at ASC LIMIT %d OFFSET %d`, pageSize, offset)

	rows, err := r.db.QueryxContext(ctx, listQuery, filter.PhotoID)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var views []models.CommentView
	for rows.Next() {
		var v models.CommentView
		if err := rows.Scan(&v.ID, &v.PhotoID, &v.AuthorID, &v.Text, &v.CreatedAt, &v.UpdatedAt, &v.AuthorUsername); err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comments: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM comments WHERE photo_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, filter.PhotoID); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	return views, total, nil
}
