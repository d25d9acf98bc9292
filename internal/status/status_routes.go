// Package status exposes authenticated liveness endpoints, useful for
// smoke-testing tokens and role assignment after deploy.
package status

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jenkinson16/leaveease-api/internal/authz"
	"github.com/Jenkinson16/leaveease-api/internal/middleware"
	"github.com/Jenkinson16/leaveease-api/internal/shared/response"
)

func RegisterRoutes(r *gin.RouterGroup) {
	status := r.Group("/status")
	status.Use(middleware.AuthMiddleware())
	{
		status.GET("", func(c *gin.Context) {
			response.Success(c, http.StatusOK, gin.H{
				"message": fmt.Sprintf("API is alive! Hello, %s [%s]", c.GetString("username"), c.GetString("role")),
			})
		})
		status.GET("/admin", middleware.RequireRole(authz.RoleAdmin), func(c *gin.Context) {
			response.Success(c, http.StatusOK, gin.H{
				"message": "Admin access granted",
			})
		})
	}
}
