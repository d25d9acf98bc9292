package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/Jenkinson16/leaveease-api/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", middleware.RateLimitByIP(1, 5), handler.Register)
		auth.POST("/login", middleware.RateLimitByIP(1, 5), handler.Login)
		auth.GET("/me", middleware.AuthMiddleware(), handler.Me)
	}
}
