package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// rateLimiter caps inbound websocket messages per connection.
type rateLimiter struct {
	limiter *rate.Limiter
}

func newRateLimiter(perMin int) *rateLimiter {
	if perMin <= 0 {
		return &rateLimiter{}
	}
	return &rateLimiter{limiter: rate.NewLimiter(perMinute(perMin), perMin)}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limiter == nil {
		return true
	}
	return r.limiter.Allow()
}

func perMinute(n int) rate.Limit {
	return rate.Every(time.Minute / time.Duration(n))
}

const maxTrackedClients = 10000

// clientLimiter keeps one token bucket per client IP.
type clientLimiter struct {
	mu       sync.Mutex
	perMin   int
	limiters map[string]*rate.Limiter
}

func newClientLimiter(perMin int) *clientLimiter {
	return &clientLimiter{perMin: perMin, limiters: make(map[string]*rate.Limiter)}
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxTrackedClients {
			l.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(perMinute(l.perMin), l.perMin)
		l.limiters[key] = lim
	}
	return lim.Allow()
}

// RateLimitMiddleware rejects clients that exceed perMin requests per minute.
// A non-positive perMin disables limiting.
func RateLimitMiddleware(perMin int) gin.HandlerFunc {
	if perMin <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newClientLimiter(perMin)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many requests"})
			return
		}
		c.Next()
	}
}
