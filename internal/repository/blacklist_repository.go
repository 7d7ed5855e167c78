package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/photoshare/photoshare-api/internal/models"
)

// BlacklistRepository persists revoked tokens.
type BlacklistRepository struct {
	db *sqlx.DB
}

// NewBlacklistRepository creates a new instance of BlacklistRepository.
func NewBlacklistRepository(db *sqlx.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Insert stores a blacklist entry. Returns ErrDuplicate when the raw token
// is already revoked so callers can treat the second revoke as a no-op.
func (r *BlacklistRepository) Insert(ctx context.Context, entry *models.BlacklistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO blacklisted_tokens (id, token, username, email, expire_access, expire_refresh, created_at) VALUES (:id, :token, :username, :email, :expire_access, :expire_refresh, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert blacklist entry: %w", err)
	}
	return nil
}

// ExistsToken reports whether the raw token has been revoked.
// The token column carries a unique index so this is a point lookup.
func (r *BlacklistRepository) ExistsToken(ctx context.Context, rawToken string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM blacklisted_tokens WHERE token = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, rawToken); err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists, nil
}

// DeleteExpired removes entries whose refresh expiry has passed and
// returns the number of rows pruned.
func (r *BlacklistRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM blacklisted_tokens WHERE expire_refresh < $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("prune blacklist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune blacklist: %w", err)
	}
	return affected, nil
}
