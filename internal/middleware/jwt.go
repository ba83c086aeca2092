package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-admin-api/internal/service"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
	"github.com/campushq/campus-admin-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

func abortUnauthorized(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}

// JWT protects routes by requiring a valid bearer access token. Validated
// claims are stored under ContextUserKey for downstream handlers.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
