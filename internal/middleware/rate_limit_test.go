package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ideascentral/internal/config"
	contextutils "ideascentral/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowRefills(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 2})
	now := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("user:a"))
	assert.True(t, limiter.Allow("user:a"))
	assert.False(t, limiter.Allow("user:a"))
	assert.True(t, limiter.Allow("user:b"), "buckets are per caller")

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("user:a"))
	assert.False(t, limiter.Allow("user:a"))
}

func TestRateLimiter_SweepsIdleCallers(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: true})
	now := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("user:a")
	limiter.Allow("user:b")
	assert.Equal(t, 2, limiter.size())

	now = now.Add(limiterIdleTTL + time.Minute)
	limiter.Allow("user:c")
	assert.Equal(t, 1, limiter.size())
}

func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.5, Burst: 1})
	now := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	router := gin.New()
	router.POST("/ideas", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/ideas", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/ideas", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	assert.Contains(t, w.Body.String(), contextutils.ErrRateLimit.Message)
}

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: false, RequestsPerSecond: 0.001, Burst: 1})

	router := gin.New()
	router.POST("/ideas", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/ideas", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}
