package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/utils"
)

// ClientScopeMiddleware authorises the :clientId path parameter and puts it in
// the context, where the tenant guard picks it up. Super admins open any shop;
// everyone else only their assigned shops. Partners are read-only.
func ClientScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		clientId := c.Param("clientId")
		if clientId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client is required"})
			c.Abort()
			return
		}
		if _, ok := utils.GetUserIdFromContext(ctx); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": utils.ErrUnauthorized.Error()})
			c.Abort()
			return
		}

		role := CurrentUserRole(ctx)
		if role != models.UserRoleSuperAdmin {
			shops, _ := utils.GetAssignedShopsFromContext(ctx)
			if !utils.Contains(shops, clientId) {
				c.JSON(http.StatusForbidden, gin.H{"error": utils.ErrForbidden.Error()})
				c.Abort()
				return
			}
		}
		if !role.CanWrite() && !isReadMethod(c.Request.Method) {
			c.JSON(http.StatusForbidden, gin.H{"error": "read-only access"})
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(utils.SetClientIdInContext(ctx, clientId))
		c.Next()
	}
}

func isReadMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
