package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/photoshare/photoshare-api/internal/service"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
	"github.com/photoshare/photoshare-api/pkg/response"
)

// ProfileHandler wires HTTP endpoints to the profile service.
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler creates a new handler.
func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// List returns a page of public profiles.
func (h *ProfileHandler) List(c *gin.Context) {
	views, pagination, err := h.service.List(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views, pagination)
}

// GetOwn returns the authenticated user's profile with activity counts.
func (h *ProfileHandler) GetOwn(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	view, err := h.service.GetOwn(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// GetByUsername returns another user's public profile.
func (h *ProfileHandler) GetByUsername(c *gin.Context) {
	view, err := h.service.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Update creates or replaces the authenticated user's profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	view, err := h.service.Upsert(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}
