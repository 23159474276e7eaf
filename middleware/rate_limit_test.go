package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/recipes", RateLimitMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})
	return r
}

func fireFrom(r *gin.Engine, addr string) int {
	req := httptest.NewRequest(http.MethodPost, "/recipes", nil)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitMiddlewareThrottlesBursts(t *testing.T) {
	r := newLimitedRouter()

	// default config allows a burst of half the per-minute budget
	ok, throttled := 0, 0
	for i := 0; i < 60; i++ {
		switch fireFrom(r, "203.0.113.10:4000") {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			throttled++
		}
	}
	assert.GreaterOrEqual(t, ok, 30)
	assert.GreaterOrEqual(t, throttled, 25)
	assert.Equal(t, 60, ok+throttled)
}

func TestRateLimitMiddlewareIsPerClient(t *testing.T) {
	r := newLimitedRouter()

	for i := 0; i < 35; i++ {
		fireFrom(r, "203.0.113.20:4000")
	}
	assert.Equal(t, http.StatusTooManyRequests, fireFrom(r, "203.0.113.20:4000"))
	assert.Equal(t, http.StatusOK, fireFrom(r, "203.0.113.30:4000"), "a fresh client keeps its own bucket")
}
