package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kingrain94/table-qr-api/internal/ratelimit"
	"github.com/kingrain94/table-qr-api/internal/utils"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

type AdmissionMetrics interface {
	RecordAdmission(decision string)
}

type RateLimitMiddleware struct {
	admitter ratelimit.Admitter
	logger   *logger.Logger
	metrics  AdmissionMetrics
}

func NewRateLimitMiddleware(admitter ratelimit.Admitter, logger *logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		admitter: admitter,
		logger:   logger,
	}
}

func (m *RateLimitMiddleware) SetMetrics(metrics AdmissionMetrics) {
	m.metrics = metrics
}

// Admit throttles every request per client before anything else runs.
// The client is gin's ClientIP, so forwarding headers only count when the
// engine's trusted proxies include the direct peer.
func (m *RateLimitMiddleware) Admit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.ClientIP()
		c.Request = c.Request.WithContext(utils.WithClientID(c.Request.Context(), clientID))
		c.Set(string(utils.ClientIDKey), clientID)

		decision, err := m.admitter.Allow(c.Request.Context(), clientID)
		if err != nil {
			// Allow request to continue on backend error (fail open)
			m.logger.Error("Rate limiter backend error", err)
			m.record("error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			m.record("rejected")
			retryAfterMs := decision.RetryAfter.Milliseconds()
			if retryAfterMs < 1 {
				retryAfterMs = 1
			}
			c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(float64(retryAfterMs)/1000)), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":          "Rate limit exceeded",
				"code":           "RATE_LIMITED",
				"retry_after_ms": retryAfterMs,
			})
			return
		}

		m.record("allowed")
		c.Next()
	}
}

func (m *RateLimitMiddleware) record(decision string) {
	if m.metrics != nil {
		m.metrics.RecordAdmission(decision)
	}
}
