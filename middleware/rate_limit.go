package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/spadellando/ricettario/config"
	"github.com/spadellando/ricettario/utils"
)

// Buckets whose client stayed quiet this long are dropped on the next access.
const limiterIdleTTL = 5 * time.Minute

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

var (
	clients   = map[string]*client{}
	clientsMu sync.Mutex
)

// RateLimitMiddleware throttles each client IP with a token bucket sized from
// the configured per-minute budget. It sits on the mutating catalog routes;
// reads are never throttled.
func RateLimitMiddleware() gin.HandlerFunc {
	cfg := config.Get()
	perMinute := max(cfg.RateLimitPerMinute, 1)
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	burst := max(perMinute/2, 1)

	return func(ctx *gin.Context) {
		if !bucketFor(ctx.ClientIP(), limit, burst).Allow() {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func bucketFor(ip string, limit rate.Limit, burst int) *rate.Limiter {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	now := time.Now()
	for key, c := range clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(clients, key)
		}
	}

	c, ok := clients[ip]
	if !ok {
		c = &client{bucket: rate.NewLimiter(limit, burst)}
		clients[ip] = c
	}
	c.lastSeen = now
	return c.bucket
}
