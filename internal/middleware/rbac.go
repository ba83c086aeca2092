package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
	"github.com/campushq/campus-admin-api/pkg/response"
)

// selfGrant lets a route admit the authenticated user acting on their own
// record, in addition to any listed roles.
const selfGrant = "SELF"

// RBAC enforces role-based access for a route. Entries are role names, plus
// the special SELF entry which matches when the :id path parameter equals
// the caller's user ID.
func RBAC(allowed ...string) gin.HandlerFunc {
	roles := make(map[models.UserRole]struct{}, len(allowed))
	allowSelf := false
	for _, a := range allowed {
		if a == selfGrant {
			allowSelf = true
			continue
		}
		roles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			abortUnauthorized(c, appErrors.ErrUnauthorized)
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := roles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf && c.Param("id") == claims.UserID && claims.UserID != "" {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a typed convenience over RBAC.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
