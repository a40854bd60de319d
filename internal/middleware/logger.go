package middleware

import (
	"time"

	"github.com/blues/fundraiser/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger 用 zap 记录每个请求
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		l := logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
		switch {
		case c.Writer.Status() >= 500:
			l.Error("request failed")
		case c.Writer.Status() >= 400:
			l.Warn("request rejected")
		default:
			l.Debug("request handled")
		}
	}
}
