package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ecommerce-api/internal/auth"
	"ecommerce-api/internal/models"
	"ecommerce-api/internal/response"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
)

// Auth exige un Bearer JWT válido y deja el id y rol del usuario en el
// contexto del request.
func Auth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Fail(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin corre después de Auth y corta con 403 a los no-admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextRole)
		if role != models.RoleAdmin {
			response.Fail(c, http.StatusForbidden, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
