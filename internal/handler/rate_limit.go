package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

type clientLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// ipRateLimiter keeps one token bucket per client IP and forgets idle clients.
type ipRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func newIPRateLimiter(perMinute int) *ipRateLimiter {
	return &ipRateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   max(perMinute/2, 1),
		now:     time.Now,
	}
}

func (l *ipRateLimiter) allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	for k, client := range l.clients {
		if now.After(client.expires) {
			delete(l.clients, k)
		}
	}

	client, ok := l.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = client
	}
	client.expires = now.Add(limiterIdleTTL)
	limiter := client.limiter
	l.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// RateLimit throttles write requests per client IP. A non-positive limit disables it.
func (a *API) RateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newIPRateLimiter(perMinute)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			a.logger.Warn("rate limit exceeded", zap.String("ip", c.ClientIP()), zap.String("path", c.Request.URL.Path))
			a.renderHTML(c, http.StatusTooManyRequests, "pages/error.html", gin.H{
				"page":    "error",
				"title":   http.StatusText(http.StatusTooManyRequests),
				"status":  http.StatusTooManyRequests,
				"message": "You are doing that too often, please slow down.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
