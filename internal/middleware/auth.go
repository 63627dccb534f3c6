package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"capebiz_backend/internal/auth"
	"capebiz_backend/internal/logger"
	"capebiz_backend/pkg/apperrors"
)

// AuthMiddleware validates the Bearer token and places the caller's identity
// into the gin context ("user_id" uint, "user_role" string).
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		userID, err := strconv.ParseUint(claims.UserID, 10, 32)
		if err != nil {
			abortUnauthorized(c, "Invalid token subject")
			return
		}

		c.Set("user_id", uint(userID))
		c.Set("user_role", claims.Role)

		ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RoleMiddleware allows only the listed roles past. Must run after
// AuthMiddleware.
func RoleMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists {
			abortUnauthorized(c, "Authentication required")
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		apperrors.HandleError(c, apperrors.NewForbiddenError("Insufficient permissions"))
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	apperrors.HandleError(c, apperrors.NewUnauthorizedError(message))
	c.Abort()
}
