package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/utils"
)

// SessionMiddleware resolves the opaque `token` header issued by login.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		user, err := models.GetUserByUsername(c.Request.Context(), username)
		if err != nil || !user.Active() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		c.Request = c.Request.WithContext(withUser(ctx, user))
		c.Next()
	}
}

func withUser(ctx context.Context, user *models.User) context.Context {
	ctx = utils.SetUsernameInContext(ctx, user.Username)
	ctx = utils.SetUserIdInContext(ctx, user.ID)
	ctx = utils.SetUserRoleInContext(ctx, string(user.Role))
	ctx = utils.SetAssignedShopsInContext(ctx, user.AssignedShops)
	return utils.SetIsSuperAdminInContext(ctx, user.Role == models.UserRoleSuperAdmin)
}

// CurrentUserRole is empty when the request is anonymous.
func CurrentUserRole(ctx context.Context) models.UserRole {
	role, _ := utils.GetUserRoleFromContext(ctx)
	return models.UserRole(role)
}
