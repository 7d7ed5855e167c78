package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/photoshare/photoshare-api/internal/models"
	"github.com/photoshare/photoshare-api/internal/service"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
	"github.com/photoshare/photoshare-api/pkg/response"
)

// CommentHandler wires HTTP endpoints to the comment service.
type CommentHandler struct {
	service *service.CommentService
}

// NewCommentHandler creates a new handler.
func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{service: svc}
}

// Create adds a comment to a photo.
func (h *CommentHandler) Create(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	comment, err := h.service.Create(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, comment)
}

// ListByPhoto returns a photo's comments, oldest first.
func (h *CommentHandler) ListByPhoto(c *gin.Context) {
	filter := models.CommentFilter{
		PhotoID:  c.Param("id"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	comments, pagination, err := h.service.ListByPhoto(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, comments, pagination)
}

// Get returns a single comment.
func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, comment, nil)
}

// Update replaces a comment's text. Author only.
func (h *CommentHandler) Update(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	comment, err := h.service.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, comment, nil)
}

// Delete removes a comment. Author or moderator.
func (h *CommentHandler) Delete(c *gin.Context) {
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
