package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/photoshare/photoshare-api/internal/models"
	"github.com/photoshare/photoshare-api/internal/service"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
	"github.com/photoshare/photoshare-api/pkg/response"
)

// PhotoHandler wires HTTP endpoints to the photo service.
type PhotoHandler struct {
	service *service.PhotoService
	metrics *service.MetricsService
}

// NewPhotoHandler creates a new handler. The metrics service is optional.
func NewPhotoHandler(svc *service.PhotoService, metrics *service.MetricsService) *PhotoHandler {
	return &PhotoHandler{service: svc, metrics: metrics}
}

// Upload accepts a multipart image upload with optional description and tags.
func (h *PhotoHandler) Upload(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file field is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read uploaded file"))
		return
	}

	req := service.UploadPhotoRequest{
		Description: c.PostForm("description"),
		Tags:        splitTags(c.PostForm("tags")),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}

	view, err := h.service.Upload(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveUpload(view.SizeBytes)
	}
	response.Created(c, view)
}

// List returns photos filtered by author or tag, newest first.
func (h *PhotoHandler) List(c *gin.Context) {
	filter := models.PhotoFilter{
		AuthorUsername: c.Query("author"),
		Tag:            c.Query("tag"),
		Page:           queryInt(c, "page", 1),
		PageSize:       queryInt(c, "page_size", 20),
	}

	views, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views, pagination)
}

// Get returns a single photo with signed download URLs.
func (h *PhotoHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Update replaces a photo's description and tags. Author only.
func (h *PhotoHandler) Update(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdatePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid photo payload"))
		return
	}

	view, err := h.service.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Delete removes a photo and its stored files. Author or moderator.
func (h *PhotoHandler) Delete(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Download streams the image behind a signed URL token.
func (h *PhotoHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "download token required"))
		return
	}

	file, relPath, err := h.service.OpenDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(relPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}

// Tags lists every tag currently attached to at least one photo upload.
func (h *PhotoHandler) Tags(c *gin.Context) {
	tags, err := h.service.Tags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tags, nil)
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
