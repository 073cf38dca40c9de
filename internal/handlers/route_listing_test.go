package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteListingHandler_CollectRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	noop := func(c *gin.Context) { c.Status(http.StatusOK) }
	engine.POST("/v1/ideas", noop)
	engine.GET("/v1/ideas", noop)
	engine.GET("/health", noop)
	engine.GET("/debug/pprof", noop)

	h := NewRouteListingHandler("test-service")
	h.CollectRoutes(engine)

	require.Len(t, h.routes, 3)
	assert.Equal(t, "/health", h.routes[0].Path)
	assert.Equal(t, RouteInfo{Method: "GET", Path: "/v1/ideas", HandlerName: h.routes[1].HandlerName}, h.routes[1])
	assert.Equal(t, "POST", h.routes[2].Method)
}
