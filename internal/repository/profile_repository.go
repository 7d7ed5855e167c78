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

// ProfileRepository provides database access for profile records.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, user_id, first_name, last_name, birthday, created_at, updated_at`

// FindByUserID returns the profile attached to an account.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE user_id = $1 LIMIT 1`, profileColumns)
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by user id: %w", err)
	}
	return &profile, nil
}

// Create inserts a profile row for an account.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO profiles (id, user_id, first_name, last_name, birthday, created_at, updated_at) VALUES (:id, :user_id, :first_name, :last_name, :birthday, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Update rewrites the mutable profile fields.
func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE profiles SET first_name = :first_name, last_name = :last_name, birthday = :birthday, updated_at = :updated_at WHERE user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

type profileViewRow struct {
	Username     string     `db:"username"`
	FirstName    string     `db:"first_name"`
	LastName     *string    `db:"last_name"`
	Birthday     *time.Time `db:"birthday"`
	Role         string     `db:"role"`
	RegisteredAt time.Time  `db:"registered_at"`
	PhotoCount   int        `db:"photo_count"`
	CommentCount int        `db:"comment_count"`
}

// List returns public profile views ordered by profile creation time.
func (r *ProfileRepository) List(ctx context.Context, page, pageSize int) ([]models.ProfileView, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT u.username, p.first_name, p.last_name, p.birthday, u.role, u.registered_at,
		(SELECT COUNT(*) FROM photos ph WHERE ph.author_id = u.id) AS photo_count,
		(SELECT COUNT(*) FROM comments c WHERE c.author_id = u.id) AS comment_count
		FROM profiles p JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)

	var rows []profileViewRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM profiles`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	views := make([]models.ProfileView, 0, len(rows))
	for _, row := range rows {
		profile := models.Profile{FirstName: row.FirstName, LastName: row.LastName}
		views = append(views, models.ProfileView{
			Username:     row.Username,
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			FullName:     profile.FullName(),
			Birthday:     row.Birthday,
			Role:         models.UserRole(row.Role),
			RegisteredAt: row.RegisteredAt,
			PhotoCount:   row.PhotoCount,
			CommentCount: row.CommentCount,
		})
	}
	return views, total, nil
}

// ActivityCounts returns the photo and comment totals for an account.
func (r *ProfileRepository) ActivityCounts(ctx context.Context, userID string) (photos int, comments int, err error) {
	const photoQuery = `SELECT COUNT(*) FROM photos WHERE author_id = $1`
	if err = r.db.GetContext(ctx, &photos, photoQuery, userID); err != nil {
		return 0, 0, fmt.Errorf("count photos: %w", err)
	}
	const commentQuery = `SELECT COUNT(*) FROM comments WHERE author_id = $1`
	if err = r.db.GetContext(ctx, &comments, commentQuery, userID); err != nil {
		return 0, 0, fmt.Errorf("count comments: %w", err)
	}
	return photos, comments, nil
}
