package middleware

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	autherrors "github.com/Jenkinson16/leaveease-api/internal/auth/errors"
	"github.com/Jenkinson16/leaveease-api/internal/authz"
	"github.com/Jenkinson16/leaveease-api/internal/shared/apperror"
	"github.com/Jenkinson16/leaveease-api/internal/shared/response"
)

// AuthMiddleware verifies the bearer token and stores the principal
// (username + role) on the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			abortWithAppError(c, apperror.ErrUnauthorized)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			errObj := autherrors.ErrInvalidToken
			if err != nil && strings.Contains(err.Error(), "expired") {
				errObj = autherrors.ErrTokenExpired
			}
			abortWithAppError(c, errObj)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortWithAppError(c, autherrors.ErrInvalidToken)
			return
		}

		username, ok := claims["sub"].(string)
		if !ok || username == "" {
			abortWithAppError(c, autherrors.ErrInvalidToken)
			return
		}
		role, _ := claims["role"].(string)

		c.Set("username", username)
		c.Set("role", role)

		c.Next()
	}
}

// RequireAction enforces the role policy for a single action. It runs
// after AuthMiddleware and before any handler logic.
func RequireAction(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := authz.Role(c.GetString("role"))
		if err := authz.Authorize(role, action); err != nil {
			httpErr := apperror.ToHTTP(err)
			response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortWithAppError(c *gin.Context, err *apperror.AppError) {
	response.Error(c, err.HTTPStatus, err.Code, err.Message, nil)
	c.Abort()
}
