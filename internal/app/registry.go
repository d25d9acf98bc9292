package app

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Jenkinson16/leaveease-api/internal/auth"
	"github.com/Jenkinson16/leaveease-api/internal/leave"
	"github.com/Jenkinson16/leaveease-api/internal/messaging/kafka"
	"github.com/Jenkinson16/leaveease-api/internal/shared/apperror"
	"github.com/Jenkinson16/leaveease-api/internal/shared/response"
	"github.com/Jenkinson16/leaveease-api/internal/status"
	"github.com/Jenkinson16/leaveease-api/internal/user"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	userRepo := user.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	authService := auth.NewService(userRepo)
	leaveService := leave.NewServiceWithOutbox(db, leaveRepo, userRepo, outboxRepo)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	leaveHandler := leave.NewHandler(leaveService)

	// --- Routes ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		leave.RegisterRoutes(api, leaveHandler, rdb)
		status.RegisterRoutes(api)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NoRoute(func(c *gin.Context) {
		err := apperror.ErrNotFound
		response.Error(c, err.HTTPStatus, err.Code, err.Message, nil)
	})

	return nil
}
