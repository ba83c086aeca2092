package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-admin-api/internal/middleware"
	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
	"github.com/campushq/campus-admin-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// bindJSON decodes the request body into dst, writing a 400 envelope and
// returning false when decoding fails.
func bindJSON(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msg))
		return false
	}
	return true
}

// clientMeta returns the caller's IP and user agent for audit trails.
func clientMeta(c *gin.Context) (string, string) {
	return c.ClientIP(), c.GetHeader("User-Agent")
}
