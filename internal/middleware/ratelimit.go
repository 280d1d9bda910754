package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coursehub/course-online-server/internal/config"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimiter is a fixed-window per-IP limiter for the auth routes. With a
// Redis client the counters are shared by every replica; without one they
// live in process memory.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
	log    zerolog.Logger

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	window int64
	count  int
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window.
// A limit of zero or less disables limiting.
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, log zerolog.Logger) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		rdb:      rdb,
		limit:    limit,
		window:   window,
		now:      time.Now,
		log:      log.With().Str("component", "ratelimit").Logger(),
		visitors: make(map[string]*visitor),
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		now := rl.now()
		windowID := now.UnixNano() / int64(rl.window)
		count, err := rl.hit(c.Request.Context(), c.ClientIP(), windowID)
		if err != nil {
			// Fail open.
			rl.log.Warn().Err(err).Msg("Rate limit counter unavailable")
			c.Next()
			return
		}

		remaining := rl.limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > rl.limit {
			reset := time.Unix(0, (windowID+1)*int64(rl.window))
			c.Header("Retry-After", strconv.Itoa(int(reset.Sub(now).Seconds())+1))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) hit(ctx context.Context, ip string, windowID int64) (int, error) {
	if rl.rdb == nil {
		return rl.hitLocal(ip, windowID), nil
	}

	key := config.CacheKey.AuthRateKey(ip, windowID)
	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (rl *RateLimiter) hitLocal(ip string, windowID int64) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok || v.window != windowID {
		// Drop counters of past windows while we hold the lock.
		for k, old := range rl.visitors {
			if old.window < windowID {
				delete(rl.visitors, k)
			}
		}
		v = &visitor{window: windowID}
		rl.visitors[ip] = v
	}
	v.count++
	return v.count
}
