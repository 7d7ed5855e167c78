package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/photoshare/photoshare-api/internal/models"
	"github.com/photoshare/photoshare-api/internal/repository"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
)

type blacklistRepository interface {
	Insert(ctx context.Context, entry *models.BlacklistEntry) error
	ExistsToken(ctx context.Context, rawToken string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type blacklistMetrics interface {
	ObserveBlacklistCheck(hit bool)
}

// BlacklistService records revoked tokens and answers revocation checks.
// Both the login and refresh paths match on the raw token string against a
// unique index; positive hits are cached in Redis to keep the hot path off
// the database.
type BlacklistService struct {
	repo     blacklistRepository
	cache    *redis.Client
	logger   *zap.Logger
	cacheTTL time.Duration
	metrics  blacklistMetrics
}

// SetMetrics attaches an optional lookup-outcome observer.
func (s *BlacklistService) SetMetrics(m blacklistMetrics) {
	s.metrics = m
}

// NewBlacklistService constructs a BlacklistService. The Redis client is
// optional; with a nil client every check goes to the database.
func NewBlacklistService(repo blacklistRepository, cache *redis.Client, logger *zap.Logger) *BlacklistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlacklistService{repo: repo, cache: cache, logger: logger, cacheTTL: 15 * time.Minute}
}

// IsBlacklisted reports whether the raw token has been revoked.
func (s *BlacklistService) IsBlacklisted(ctx context.Context, rawToken string) (bool, error) {
	if rawToken == "" {
		return false, nil
	}

	key := cacheKey(rawToken)
	if s.cache != nil {
		if err := s.cache.Get(ctx, key).Err(); err == nil {
			s.observe(true)
			return true, nil
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("blacklist cache read failed", zap.Error(err))
		}
	}

	revoked, err := s.repo.ExistsToken(ctx, rawToken)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check blacklist")
	}

	if revoked && s.cache != nil {
		if err := s.cache.Set(ctx, key, 1, s.cacheTTL).Err(); err != nil {
			s.logger.Warn("blacklist cache write failed", zap.Error(err))
		}
	}

	s.observe(revoked)
	return revoked, nil
}

func (s *BlacklistService) observe(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveBlacklistCheck(hit)
	}
}

// Revoke records a blacklist entry. Revoking the same raw token twice is a
// no-op; exactly one entry remains.
func (s *BlacklistService) Revoke(ctx context.Context, entry *models.BlacklistEntry) error {
	if err := s.repo.Insert(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.Debug("token already blacklisted", zap.String("username", entry.Username))
		} else {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to blacklist token")
		}
	}

	if s.cache != nil {
		ttl := time.Until(entry.ExpireRefresh)
		if ttl > s.cacheTTL || ttl <= 0 {
			ttl = s.cacheTTL
		}
		if err := s.cache.Set(ctx, cacheKey(entry.Token), 1, ttl).Err(); err != nil {
			s.logger.Warn("blacklist cache write failed", zap.Error(err))
		}
	}

	return nil
}

// StartPruner launches a background loop deleting entries whose refresh
// window has closed. It stops when the context is cancelled.
func (s *BlacklistService) StartPruner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pruned, err := s.repo.DeleteExpired(ctx, time.Now().UTC())
				if err != nil {
					s.logger.Warn("blacklist prune failed", zap.Error(err))
					continue
				}
				if pruned > 0 {
					s.logger.Info("pruned expired blacklist entries", zap.Int64("count", pruned))
				}
			}
		}
	}()
}

func cacheKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return "blacklist:" + hex.EncodeToString(sum[:])
}
