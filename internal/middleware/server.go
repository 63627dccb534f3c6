package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"capebiz_backend/internal/logger"
)

// RequestIDMiddleware tags every request with an id, honoring one supplied
// by an upstream proxy.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// LoggingMiddleware logs one line per request with timing and status.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.CtxInfo(c.Request.Context(), "request handled",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// RecoveryMiddleware converts panics into 500 responses without killing the
// process.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.CtxError(c.Request.Context(), "panic recovered", "panic", recovered)
		c.AbortWithStatusJSON(500, gin.H{"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "Internal server error",
		}})
	})
}
