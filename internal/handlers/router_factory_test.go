package handlers

import (
	"net/http"
	"testing"

	"ideascentral/internal/config"
	"ideascentral/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_HealthAndVersion(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode(t, w)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "memory", health["store"])

	w = s.do(t, http.MethodGet, "/v1/version", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, version.Version, decode(t, w)["version"])
}

func TestRouter_SecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	require.True(t, s.cfg.IsTest)
	w := s.do(t, http.MethodGet, "/v1/version", nil, nil)
	assert.Equal(t, config.DefaultCSP, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRouter_SecurityHeadersSkippedInDebug(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.Debug = true })
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })

	w := s.do(t, http.MethodGet, "/v1/version", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/v1/nothing-here", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RECORD_NOT_FOUND", decode(t, w)["code"])
}

func TestRouter_RouteListing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/v1/routes", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ideas-central-test", body["service"])

	var found bool
	for _, r := range body["routes"].([]interface{}) {
		route := r.(map[string]interface{})
		if route["method"] == "POST" && route["path"] == "/v1/ideas/:id/evaluations" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRouter_RateLimitedWrites(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.01, Burst: 2}
	})

	body := map[string]string{"email": "nobody@uni.edu", "password": "whatever"}
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/v1/auth/login", body, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/v1/auth/login", body, nil).Code)

	w := s.do(t, http.MethodPost, "/v1/auth/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestClassifyHandler(t *testing.T) {
	s := newTestServer(t)
	student, _, _ := s.seedCampus(t)

	w := s.do(t, http.MethodPost, "/v1/classify", map[string]string{
		"text": "Parking near the engineering building is impossible and traffic on the main road backs up every morning",
	}, student)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode(t, w)
	assert.Equal(t, "transportation", result["category"])
	assert.Equal(t, float64(33), result["confidence"])

	w = s.do(t, http.MethodPost, "/v1/classify", map[string]string{"text": "too short"}, student)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, w)["code"])

	w = s.do(t, http.MethodPost, "/v1/classify", map[string]string{"text": "long enough text but no session"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
