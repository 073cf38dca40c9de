package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"ideascentral/internal/config"
	contextutils "ideascentral/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per caller. Callers are keyed by user ID
// when signed in, otherwise by client IP.
type RateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	enabled   bool
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a limiter from config. Zero values fall back to the defaults.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = config.DefaultRateLimitRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = config.DefaultRateLimitBurst
	}
	return &RateLimiter{
		entries: map[string]*limiterEntry{},
		limit:   rate.Limit(rps),
		burst:   burst,
		enabled: cfg.Enabled,
		now:     time.Now,
	}
}

// Allow consumes one token for key and reports whether the request may proceed
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) > limiterIdleTTL {
		for k, e := range r.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(r.entries, k)
			}
		}
		r.lastSweep = now
	}

	e, ok := r.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Middleware rejects callers over their budget with 429. Disabled limiters pass through.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.enabled {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if userID := c.GetString(UserIDKey); userID != "" {
			key = "user:" + userID
		}

		if !r.Allow(key) {
			retryAfter := int(math.Ceil(1 / float64(r.limit)))
			c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			HandleAppError(c, contextutils.ErrRateLimit)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
