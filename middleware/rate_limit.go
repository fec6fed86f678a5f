package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/studyhub/missions/config"
	"github.com/studyhub/missions/utils"
)

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
	mu      sync.Mutex
}

// limiterSet holds one bucket per client for a single middleware instance.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiter
}

// RateLimitMiddleware applies a per-client token bucket sized from
// RATE_LIMIT_PER_MINUTE. Authenticated callers are keyed by user id, everyone
// else by IP.
func RateLimitMiddleware() gin.HandlerFunc {
	return RateLimitPerMinute(config.Get().RateLimitPerMinute)
}

// RateLimitPerMinute is RateLimitMiddleware with an explicit budget.
func RateLimitPerMinute(perMinute int) gin.HandlerFunc {
	r := rate.Every(time.Minute / time.Duration(maxInt(perMinute, 1)))
	burst := maxInt(perMinute/2, 1)
	set := &limiterSet{limiters: map[string]*rateLimiter{}}

	return func(ctx *gin.Context) {
		key := "ip:" + ctx.ClientIP()
		if id, ok := CurrentUserID(ctx); ok {
			key = "user:" + strconv.FormatUint(uint64(id), 10)
		}
		limiter := set.get(key, r, burst)

		limiter.mu.Lock()
		allowed := limiter.limiter.Allow()
		limiter.mu.Unlock()

		if !allowed {
			ctx.Header("Retry-After", "60")
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

func (s *limiterSet) get(key string, limit rate.Limit, burst int) *rateLimiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupExpiredLocked()

	if limiter, ok := s.limiters[key]; ok {
		limiter.expires = time.Now().Add(5 * time.Minute)
		return limiter
	}

	limiter := &rateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		expires: time.Now().Add(5 * time.Minute),
	}
	s.limiters[key] = limiter
	return limiter
}

func (s *limiterSet) cleanupExpiredLocked() {
	now := time.Now()
	for key, limiter := range s.limiters {
		if now.After(limiter.expires) {
			delete(s.limiters, key)
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
