package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
	"github.com/noah-isme/course-enrollment-api/pkg/response"
)

// RBAC enforces role-based access control for routes. When selfParam is not empty a user whose id
// equals that route parameter passes regardless of role.
func RBAC(selfParam string, allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[user.Role]; ok {
			c.Next()
			return
		}

		if selfParam != "" {
			if targetID := c.Param(selfParam); targetID != "" && targetID == user.ID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient role"))
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return RBAC("", roles...)
}

// AdminOnly admits administrators.
func AdminOnly() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

// StudentOnly admits students.
func StudentOnly() gin.HandlerFunc {
	return RequireRoles(models.RoleStudent)
}

// AdminOrSelf admits administrators and the user named by the route parameter.
func AdminOrSelf(param string) gin.HandlerFunc {
	return RBAC(param, models.RoleAdmin)
}
