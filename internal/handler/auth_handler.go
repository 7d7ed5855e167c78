package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/photoshare/photoshare-api/internal/middleware"
	"github.com/photoshare/photoshare-api/internal/models"
	"github.com/photoshare/photoshare-api/internal/service"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
	"github.com/photoshare/photoshare-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Register creates a new account and returns its public view.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Login authenticates a user and issues access, refresh and email tokens.
// A bearer token already present on the request is rejected when revoked.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	if raw, ok := middleware.BearerToken(c); ok {
		req.Bearer = raw
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Refresh exchanges a valid refresh token for a fresh access and email
// token. The refresh token itself is returned unchanged.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, ok := middleware.BearerToken(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
		return
	}

	res, err := h.service.Refresh(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Logout revokes the presented access token and marks the user logged out.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw, ok := middleware.BearerToken(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
		return
	}

	if err := h.service.Logout(c.Request.Context(), raw); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "user logged out"}, nil)
}

// Confirm validates an email confirmation token from the query string.
func (h *AuthHandler) Confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "confirmation token required"))
		return
	}

	if err := h.service.ConfirmEmail(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "email confirmed"}, nil)
}
