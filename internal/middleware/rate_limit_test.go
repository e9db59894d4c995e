package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrain94/table-qr-api/internal/ratelimit"
	"github.com/kingrain94/table-qr-api/internal/utils"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

type failingAdmitter struct{}

func (failingAdmitter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis: connection refused")
}

type countingMetrics struct {
	mu        sync.Mutex
	decisions map[string]int
}

func (m *countingMetrics) RecordAdmission(decision string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.decisions == nil {
		m.decisions = map[string]int{}
	}
	m.decisions[decision]++
}

func newRateLimitedRouter(t *testing.T, admitter ratelimit.Admitter, metrics AdmissionMetrics, handlerCalls *int, trustedProxies ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mw := NewRateLimitMiddleware(admitter, logger.NewNop())
	if metrics != nil {
		mw.SetMetrics(metrics)
	}

	router := gin.New()
	require.NoError(t, router.SetTrustedProxies(trustedProxies))
	router.Use(mw.Admit())
	router.GET("/api/v1/scan/:token", func(c *gin.Context) {
		*handlerCalls++
		c.String(http.StatusOK, utils.GetClientIDFromContext(c.Request.Context()))
	})
	return router
}

func scanRequest(forwardedFor string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/scan/abc.def", nil)
	req.RemoteAddr = "192.0.2.10:51234"
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	return req
}

func TestAdmit_RejectsSixthRequestBeforeHandler(t *testing.T) {
	// Arrange
	metrics := &countingMetrics{}
	calls := 0
	router := newRateLimitedRouter(t, ratelimit.NewLimiter(5, time.Second), metrics, &calls)

	// Act
	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = httptest.NewRecorder()
		router.ServeHTTP(last, scanRequest("198.51.100.1"))
	}

	// Assert
	assert.Equal(t, 5, calls)
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "5", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", last.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.Greater(t, body["retry_after_ms"].(float64), 0.0)
	assert.LessOrEqual(t, body["retry_after_ms"].(float64), 1000.0)

	assert.Equal(t, 5, metrics.decisions["allowed"])
	assert.Equal(t, 1, metrics.decisions["rejected"])
}

func TestAdmit_HeadersOnAllowedRequest(t *testing.T) {
	calls := 0
	router := newRateLimitedRouter(t, ratelimit.NewLimiter(60, time.Minute), nil, &calls, "192.0.2.10")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, scanRequest("198.51.100.2"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "198.51.100.2", w.Body.String())
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestAdmit_FailsOpenOnBackendError(t *testing.T) {
	metrics := &countingMetrics{}
	calls := 0
	router := newRateLimitedRouter(t, failingAdmitter{}, metrics, &calls)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, scanRequest(""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, metrics.decisions["error"])
}

func TestAdmit_RotatingForwardedForFromUntrustedPeer(t *testing.T) {
	// Arrange
	calls := 0
	router := newRateLimitedRouter(t, ratelimit.NewLimiter(5, time.Minute), nil, &calls)

	// Act
	allowed := 0
	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, scanRequest("10.0.0."+strconv.Itoa(i)))
		if w.Code == http.StatusOK {
			allowed++
			assert.Equal(t, "192.0.2.10", w.Body.String())
		}
	}

	// Assert
	assert.Equal(t, 5, allowed)
	assert.Equal(t, 5, calls)
}

func TestAdmit_SpoofedFirstHopBehindTrustedProxy(t *testing.T) {
	// Arrange
	calls := 0
	router := newRateLimitedRouter(t, ratelimit.NewLimiter(5, time.Minute), nil, &calls, "192.0.2.0/24")

	// Act: the proxy appends the real peer; the client controls only the left part
	allowed := 0
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, scanRequest("10.0.0."+strconv.Itoa(i)+", 203.0.113.9"))
		if w.Code == http.StatusOK {
			allowed++
			assert.Equal(t, "203.0.113.9", w.Body.String())
		}
	}

	// Assert
	assert.Equal(t, 5, allowed)
}

func TestAdmit_ClientIdentifierFallsBackToRemoteAddr(t *testing.T) {
	cases := []struct {
		name    string
		fwd     string
		remote  string
		trusted []string
		want    string
	}{
		{"untrusted header ignored", "203.0.113.9", "10.0.0.2:443", nil, "10.0.0.2"},
		{"trusted proxy forwards client", "203.0.113.9", "10.0.0.2:443", []string{"10.0.0.0/8"}, "203.0.113.9"},
		{"ipv6 remote", "", "[2001:db8::1]:8080", nil, "2001:db8::1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			router := newRateLimitedRouter(t, ratelimit.NewLimiter(60, time.Minute), nil, &calls, tc.trusted...)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/scan/abc.def", nil)
			req.RemoteAddr = tc.remote
			if tc.fwd != "" {
				req.Header.Set("X-Forwarded-For", tc.fwd)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}
