package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/photoshare/photoshare-api/internal/middleware"
	"github.com/photoshare/photoshare-api/internal/models"
)

func userFromContext(c *gin.Context) *models.User {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
