package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/utils"
)

// AuthMiddleware accepts `Authorization: Bearer <jwt>` from API clients.
// The user is reloaded so disabled accounts and shop changes apply at once.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		claims, err := utils.JwtClaims(auth[len(bearer):])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		user, err := models.GetUserByUsername(c.Request.Context(), claims.Username)
		if err != nil || user.ID != claims.ID || !user.Active() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(withUser(c.Request.Context(), user))
		c.Next()
	}
}

// RequireUser rejects anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": utils.ErrUnauthorized.Error()})
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSuperAdmin, _ := utils.GetIsSuperAdminFromContext(c.Request.Context()); !isSuperAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": utils.ErrForbidden.Error()})
			c.Abort()
			return
		}
		c.Next()
	}
}
