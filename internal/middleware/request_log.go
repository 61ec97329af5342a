package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// RequestLog emits a structured access log entry after each request.
// Failed requests are logged at warn level so they stand out in aggregation.
func RequestLog(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", c.ClientIP()),
		}
		if claimsValue, ok := c.Get(ContextUserKey); ok {
			if claims, ok := claimsValue.(*models.JWTClaims); ok {
				fields = append(fields, zap.String("user_id", claims.UserID))
			}
		}

		if c.Writer.Status() >= 400 {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Debug("request completed", fields...)
	}
}
