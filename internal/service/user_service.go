package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/photoshare/photoshare-api/internal/models"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
}

// UpdateRoleRequest changes an account's role.
type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=user moderator admin"`
}

// UserService handles administrative account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated account summaries.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.PublicUser, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	summaries := make([]models.PublicUser, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Public())
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return summaries, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// UpdateRole changes a user's role. An admin cannot demote themselves.
func (s *UserService) UpdateRole(ctx context.Context, actor *models.User, id string, req UpdateRoleRequest) (*models.PublicUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}

	if actor.ID == id && req.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admins cannot demote themselves")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.repo.UpdateRole(ctx, id, req.Role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	user.Role = req.Role
	public := user.Public()
	return &public, nil
}
