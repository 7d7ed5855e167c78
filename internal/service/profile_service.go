package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/photoshare/photoshare-api/internal/models"
	"github.com/photoshare/photoshare-api/internal/repository"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
)

type profileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	List(ctx context.Context, page, pageSize int) ([]models.ProfileView, int, error)
	ActivityCounts(ctx context.Context, userID string) (int, int, error)
}

type profileUserFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// UpdateProfileRequest is the payload for creating or editing a profile.
type UpdateProfileRequest struct {
	FirstName string     `json:"first_name" validate:"required,max=50"`
	LastName  *string    `json:"last_name" validate:"omitempty,max=50"`
	Birthday  *time.Time `json:"birthday"`
}

// ProfileService exposes public profile views and self-service edits.
type ProfileService struct {
	repo      profileRepository
	users     profileUserFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService instance.
func NewProfileService(repo profileRepository, users profileUserFinder, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns a page of public profile views.
func (s *ProfileService) List(ctx context.Context, page, pageSize int) ([]models.ProfileView, *models.Pagination, error) {
	views, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return views, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// GetByUsername returns the public profile view of an account.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*models.ProfileView, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	return s.buildView(ctx, user)
}

// GetOwn returns the caller's profile view.
func (s *ProfileService) GetOwn(ctx context.Context, user *models.User) (*models.ProfileView, error) {
	return s.buildView(ctx, user)
}

// Upsert creates or rewrites the caller's profile.
func (s *ProfileService) Upsert(ctx context.Context, user *models.User, req UpdateProfileRequest) (*models.ProfileView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	if req.Birthday != nil && req.Birthday.After(time.Now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "birthday must be in the past")
	}

	profile := &models.Profile{
		UserID:    user.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthday:  req.Birthday,
	}

	_, err := s.repo.FindByUserID(ctx, user.ID)
	switch {
	case err == nil:
		if err := s.repo.Update(ctx, profile); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
		}
	case errors.Is(err, sql.ErrNoRows):
		if err := s.repo.Create(ctx, profile); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create profile")
		}
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	return s.buildView(ctx, user)
}

func (s *ProfileService) buildView(ctx context.Context, user *models.User) (*models.ProfileView, error) {
	view := &models.ProfileView{
		Username:     user.Username,
		Role:         user.Role,
		RegisteredAt: user.RegisteredAt,
	}

	profile, err := s.repo.FindByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if profile != nil {
		view.FirstName = profile.FirstName
		view.LastName = profile.LastName
		view.FullName = profile.FullName()
		view.Birthday = profile.Birthday
	}

	photos, comments, err := s.repo.ActivityCounts(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count activity")
	}
	view.PhotoCount = photos
	view.CommentCount = comments

	return view, nil
}
