package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

// RBAC enforces role-based access control for routes. The special value
// "SELF" allows a request when the :id path parameter matches the caller.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		allowSelf := false
		allowedRoles := make(map[string]struct{})

		for _, a := range allowed {
			if a == "SELF" {
				allowSelf = true
				continue
			}
			allowedRoles[a] = struct{}{}
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// AdminOnly restricts a route to administrator accounts.
func AdminOnly() gin.HandlerFunc {
	return RBAC(models.RoleAdmin)
}

// SchedulerOrAdmin restricts a route to accounts that may mutate schedules.
func SchedulerOrAdmin() gin.HandlerFunc {
	return RBAC(models.RoleAdmin, models.RoleScheduler)
}
