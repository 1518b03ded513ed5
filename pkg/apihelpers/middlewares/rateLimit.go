package middlewares

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter hands out one token bucket per client IP.
type ClientRateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	idleTime time.Duration
	now      func() time.Time
}

func NewClientRateLimiter(perMinute int, burst int) *ClientRateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &ClientRateLimiter{
		clients:  map[string]*clientLimiter{},
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		idleTime: 10 * time.Minute,
		now:      time.Now,
	}
}

func (l *ClientRateLimiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.clients[clientIP]
	if !ok {
		l.cleanup(now)
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[clientIP] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// cleanup expects the lock to be held.
func (l *ClientRateLimiter) cleanup(now time.Time) {
	for ip, cl := range l.clients {
		if now.Sub(cl.lastSeen) > l.idleTime {
			delete(l.clients, ip)
		}
	}
}

// LimitKeyAttempts rejects clients that try too many access keys in a short time. Clients
// are told apart by gin's ClientIP, so the engine's trusted proxies decide whether
// X-Forwarded-For is honoured. rejected writes the 429 response; nil sends an empty one.
func LimitKeyAttempts(l *ClientRateLimiter, rejected gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !l.Allow(clientIP) {
			slog.Warn("too many key attempts", slog.String("clientIP", clientIP), slog.String("path", c.Request.URL.Path))
			c.Abort()
			if rejected == nil {
				c.Status(http.StatusTooManyRequests)
				return
			}
			rejected(c)
			return
		}
		c.Next()
	}
}
