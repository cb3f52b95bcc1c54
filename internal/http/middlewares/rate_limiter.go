package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key. Buckets idle for longer
// than idleTTL are swept lazily on the next request.
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	clients map[string]*clientBucket
	lastGC  time.Time
	now     func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastGC) > rl.idleTTL {
		for k, b := range rl.clients {
			if now.Sub(b.lastSeen) > rl.idleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastGC = now
	}

	b, ok := rl.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// RateLimiterMiddleware enforces the limit for a derived key.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		r := rl.bucket(key).ReserveN(rl.now(), 1)
		if !r.OK() {
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		if delay := r.DelayFrom(rl.now()); delay > 0 {
			r.CancelAt(rl.now())
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyBySubjectOrIP limits authenticated callers per identity.
func KeyBySubjectOrIP(c *gin.Context) string {
	if id, ok := SubjectFromContext(c); ok && id != "" {
		return "sub:" + id
	}
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// respects X-Forwarded-For / X-Real-IP only for trusted proxies
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}
