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

type commentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	UpdateText(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
	ListByPhoto(ctx context.Context, filter models.CommentFilter) ([]models.CommentView, int, error)
}

type commentPhotoFinder interface {
	FindByID(ctx context.Context, id string) (*models.Photo, error)
}

// CommentRequest is the payload for creating or editing a comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
}

// CommentService handles comment workflows on photos.
type CommentService struct {
	repo      commentRepository
	photos    commentPhotoFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService constructs a CommentService instance.
func NewCommentService(repo commentRepository, photos commentPhotoFinder, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommentService{repo: repo, photos: photos, validator: validate, logger: logger}
}

// Create attaches a comment to a photo.
func (s *CommentService) Create(ctx context.Context, author *models.User, photoID string, req CommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	if _, err := s.photos.FindByID(ctx, photoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load photo")
	}

	comment := &models.Comment{
		PhotoID:  photoID,
		AuthorID: author.ID,
		Text:     req.Text,
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}

	return comment, nil
}

// Get returns a comment by id.
func (s *CommentService) Get(ctx context.Context, id string) (*models.Comment, error) {
	return s.findComment(ctx, id)
}

// ListByPhoto returns a photo's comments with pagination metadata.
func (s *CommentService) ListByPhoto(ctx context.Context, filter models.CommentFilter) ([]models.CommentView, *models.Pagination, error) {
	views, total, err := s.repo.ListByPhoto(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return views, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Update edits a comment's text. Only the author may edit.
func (s *CommentService) Update(ctx context.Context, actor *models.User, id string, req CommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	comment, err := s.findComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author may edit a comment")
	}

	if err := s.repo.UpdateText(ctx, id, req.Text); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update comment")
	}
	comment.Text = req.Text

	return comment, nil
}

// Delete removes a comment. Moderators and admins may delete any comment;
// authors may delete their own.
func (s *CommentService) Delete(ctx context.Context, actor *models.User, id string) error {
	comment, err := s.findComment(ctx, id)
	if err != nil {
		return err
	}
	if comment.AuthorID != actor.ID && actor.Role != models.RoleModerator && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}
	return nil
}

func (s *CommentService) findComment(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	return comment, nil
}
