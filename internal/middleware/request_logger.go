package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrain94/table-qr-api/internal/utils"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

type HTTPMetrics interface {
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration)
}

// RequestLogger tags each request with an ID, then logs and measures it once it completes.
func RequestLogger(log *logger.Logger, metrics HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(utils.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		latency := time.Since(start)
		status := c.Writer.Status()

		if metrics != nil {
			metrics.RecordHTTPRequest(c.Request.Method, route, status, latency)
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_id", utils.GetClientIDFromContext(c.Request.Context())),
		}
		if status >= 500 {
			log.Warn("Request failed", fields...)
			return
		}
		log.Info("Request completed", fields...)
	}
}
