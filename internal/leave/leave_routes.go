package leave

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Jenkinson16/leaveease-api/internal/authz"
	"github.com/Jenkinson16/leaveease-api/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		create := []gin.HandlerFunc{
			middleware.RateLimitByUser(0.5, 2),
			middleware.RequireAction(authz.ActionCreateLeave),
		}
		if rdb != nil {
			create = append(create, middleware.Idempotency(rdb))
		}
		leaves.POST("", append(create, handler.Create)...)

		leaves.GET("/my",
			middleware.RateLimitByUser(3, 10),
			middleware.RequireAction(authz.ActionListOwnLeaves),
			handler.GetMine,
		)
		leaves.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RequireAction(authz.ActionListAllLeaves),
			handler.GetAll,
		)
		leaves.PUT("/:id/approve",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RequireAction(authz.ActionDecideLeave),
			handler.Approve,
		)
		leaves.PUT("/:id/reject",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RequireAction(authz.ActionDecideLeave),
			handler.Reject,
		)
	}
}
