package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/photoshare/photoshare-api/internal/service"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
	"github.com/photoshare/photoshare-api/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated user.
const ContextUserKey = "currentUser"

// ContextTokenKey is the gin context key storing the raw bearer token.
const ContextTokenKey = "currentToken"

// BearerToken extracts the raw token from an Authorization header. The second
// return value reports whether a well-formed bearer header was present.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// JWT protects routes by requiring a valid, non-revoked access token whose
// holder is still logged in.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		user, err := authService.ResolveAccessUser(c.Request.Context(), raw)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenKey, raw)
		c.Next()
	}
}
