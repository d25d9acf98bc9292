package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Jenkinson16/leaveease-api/internal/authz"
	"github.com/Jenkinson16/leaveease-api/internal/shared/apperror"
	"github.com/Jenkinson16/leaveease-api/internal/shared/response"
)

// RequireRole allows only the listed roles through. Prefer RequireAction
// for domain endpoints; this exists for plain role-gated pages such as
// the status endpoints.
func RequireRole(allowed ...authz.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := authz.Role(c.GetString("role"))
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		err := apperror.ErrForbidden
		response.Error(c, err.HTTPStatus, err.Code, err.Message, nil)
		c.Abort()
	}
}
