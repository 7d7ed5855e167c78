package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/photoshare/photoshare-api/internal/models"
	"github.com/photoshare/photoshare-api/pkg/config"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
	"github.com/photoshare/photoshare-api/pkg/storage"
)

type photoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error
	FindByID(ctx context.Context, id string) (*models.Photo, error)
	UpdateDescription(ctx context.Context, id, description string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.PhotoFilter) ([]models.Photo, int, error)
	ReplaceTags(ctx context.Context, photoID string, names []string) error
	TagsFor(ctx context.Context, photoID string) ([]string, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	AuthorUsername(ctx context.Context, userID string) (string, error)
}

type imageStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// UploadPhotoRequest carries a decoded multipart upload.
type UploadPhotoRequest struct {
	Description string   `validate:"max=500"`
	Tags        []string `validate:"max=5,dive,min=1,max=50"`
	Filename    string   `validate:"required"`
	ContentType string   `validate:"required"`
	Data        []byte   `validate:"required"`
}

// UpdatePhotoRequest mutates photo metadata.
type UpdatePhotoRequest struct {
	Description string   `json:"description" validate:"max=500"`
	Tags        []string `json:"tags" validate:"max=5,dive,min=1,max=50"`
}

// PhotoService stores uploaded images, derives thumbnails and serves
// time-limited download URLs.
type PhotoService struct {
	repo      photoRepository
	store     imageStore
	signer    *storage.SignedURLSigner
	cfg       config.UploadsConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPhotoService constructs a PhotoService instance.
func NewPhotoService(repo photoRepository, store imageStore, signer *storage.SignedURLSigner, cfg config.UploadsConfig, validate *validator.Validate, logger *zap.Logger) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PhotoService{repo: repo, store: store, signer: signer, cfg: cfg, validator: validate, logger: logger}
}

// Upload stores the original image and a thumbnail, then records the photo.
func (s *PhotoService) Upload(ctx context.Context, author *models.User, req UploadPhotoRequest) (*models.PhotoView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}
	if s.cfg.MaxFileSizeBytes > 0 && int64(len(req.Data)) > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge, "")
	}
	if !s.mimeAllowed(req.ContentType) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "content type "+req.ContentType+" is not allowed")
	}

	img, err := imaging.Decode(bytes.NewReader(req.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedMedia.Code, appErrors.ErrUnsupportedMedia.Status, "file is not a decodable image")
	}

	photoID := uuid.NewString()
	ext := strings.ToLower(path.Ext(req.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	originalPath := "photos/" + photoID + ext
	thumbPath := "thumbs/" + photoID + ".jpg"

	if _, err := s.store.Save(originalPath, req.Data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}

	side := s.cfg.ThumbnailSize
	if side <= 0 {
		side = 256
	}
	thumb := imaging.Thumbnail(img, side, side, imaging.Lanczos)
	var thumbBuf bytes.Buffer
	if err := imaging.Encode(&thumbBuf, thumb, imaging.JPEG); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode thumbnail")
	}
	if _, err := s.store.Save(thumbPath, thumbBuf.Bytes()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store thumbnail")
	}

	photo := &models.Photo{
		ID:            photoID,
		AuthorID:      author.ID,
		Description:   req.Description,
		StoragePath:   originalPath,
		ThumbnailPath: thumbPath,
		ContentType:   req.ContentType,
		SizeBytes:     int64(len(req.Data)),
	}

	if err := s.repo.Create(ctx, photo); err != nil {
		if cleanupErr := s.store.Delete(originalPath); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create photo")
	}

	if len(req.Tags) > 0 {
		if err := s.repo.ReplaceTags(ctx, photo.ID, req.Tags); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach tags")
		}
	}

	return s.view(ctx, photo)
}

// Get returns a single photo view.
func (s *PhotoService) Get(ctx context.Context, id string) (*models.PhotoView, error) {
	photo, err := s.findPhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, photo)
}

// List returns photo views matching the filter.
func (s *PhotoService) List(ctx context.Context, filter models.PhotoFilter) ([]models.PhotoView, *models.Pagination, error) {
	photos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list photos")
	}

	views := make([]models.PhotoView, 0, len(photos))
	for i := range photos {
		view, err := s.view(ctx, &photos[i])
		if err != nil {
			return nil, nil, err
		}
		views = append(views, *view)
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

// Update rewrites a photo's description and tags. Only the author may edit.
func (s *PhotoService) Update(ctx context.Context, actor *models.User, id string, req UpdatePhotoRequest) (*models.PhotoView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	photo, err := s.findPhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	if photo.AuthorID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author may edit a photo")
	}

	if err := s.repo.UpdateDescription(ctx, id, req.Description); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update photo")
	}
	photo.Description = req.Description

	if req.Tags != nil {
		if err := s.repo.ReplaceTags(ctx, id, req.Tags); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tags")
		}
	}

	return s.view(ctx, photo)
}

// Delete removes a photo and its stored files. The author, a moderator or
// an admin may delete.
func (s *PhotoService) Delete(ctx context.Context, actor *models.User, id string) error {
	photo, err := s.findPhoto(ctx, id)
	if err != nil {
		return err
	}
	if photo.AuthorID != actor.ID && actor.Role != models.RoleModerator && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete photo")
	}

	if err := s.store.Delete(photo.StoragePath); err != nil {
		s.logger.Warn("failed to remove photo file", zap.String("path", photo.StoragePath), zap.Error(err))
	}
	if err := s.store.Delete(photo.ThumbnailPath); err != nil {
		s.logger.Warn("failed to remove thumbnail file", zap.String("path", photo.ThumbnailPath), zap.Error(err))
	}

	return nil
}

// OpenDownload resolves a signed download token into a readable file and
// the stored relative path, from which the content type can be derived.
func (s *PhotoService) OpenDownload(token string) (io.ReadCloser, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, "invalid download token")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "photo file not found")
	}

	return file, relPath, nil
}

// Tags returns all known tags.
func (s *PhotoService) Tags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tags")
	}
	return tags, nil
}

func (s *PhotoService) findPhoto(ctx context.Context, id string) (*models.Photo, error) {
	photo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load photo")
	}
	return photo, nil
}

func (s *PhotoService) view(ctx context.Context, photo *models.Photo) (*models.PhotoView, error) {
	tags, err := s.repo.TagsFor(ctx, photo.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tags")
	}
	if tags == nil {
		tags = []string{}
	}

	username, err := s.repo.AuthorUsername(ctx, photo.AuthorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve author")
	}

	url, expiresAt, err := s.signer.Generate(photo.ID, photo.StoragePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	thumbURL, _, err := s.signer.Generate(photo.ID, photo.ThumbnailPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign thumbnail url")
	}

	return &models.PhotoView{
		Photo:          *photo,
		AuthorUsername: username,
		Tags:           tags,
		URL:            fmt.Sprintf("/api/v1/photos/download?token=%s", url),
		ThumbnailURL:   fmt.Sprintf("/api/v1/photos/download?token=%s", thumbURL),
		URLExpiresAt:   expiresAt,
	}, nil
}

func (s *PhotoService) mimeAllowed(contentType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, m := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(m, contentType) {
			return true
		}
	}
	return false
}
