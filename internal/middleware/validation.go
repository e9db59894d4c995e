package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kingrain94/table-qr-api/pkg/logger"
)

type ValidationMiddleware struct {
	logger *logger.Logger
}

func NewValidationMiddleware(logger *logger.Logger) *ValidationMiddleware {
	return &ValidationMiddleware{
		logger: logger,
	}
}

// ValidateContentType ensures only allowed content types on requests with a body
func (m *ValidationMiddleware) ValidateContentType(allowedTypes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodDelete || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		// Remove charset from content type
		contentType := strings.TrimSpace(strings.Split(c.GetHeader("Content-Type"), ";")[0])
		if contentType == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Content-Type header is required", "code": "INVALID_INPUT"})
			return
		}

		for _, allowedType := range allowedTypes {
			if contentType == allowedType {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"error":         "Unsupported Content-Type",
			"code":          "INVALID_INPUT",
			"allowed_types": allowedTypes,
		})
	}
}

// ValidateRequestSize limits request body size
func (m *ValidationMiddleware) ValidateRequestSize(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":         "Request body too large",
				"code":          "INVALID_INPUT",
				"max_size":      maxSize,
				"received_size": c.Request.ContentLength,
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
