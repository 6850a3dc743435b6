package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"coursepay/internal/api"
	"coursepay/internal/logger"
	"coursepay/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key is allowed right now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter keeps a token bucket per key in process memory.
type MemoryLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter allows rps requests per second per key with the given
// burst. Keys idle for longer than ttl are dropped by a sweep every minute
// until ctx is done.
func NewMemoryLimiter(ctx context.Context, rps float64, burst int, ttl time.Duration) *MemoryLimiter {
	rl := &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
	}

	go rl.cleanup(ctx)

	return rl
}

func (rl *MemoryLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep(time.Now())
		}
	}
}

func (rl *MemoryLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, key)
		}
	}
}

func (rl *MemoryLimiter) getVisitor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	return rl.getVisitor(key).Allow(), nil
}

// RedisLimiter counts requests per key in one-second windows shared by every
// instance pointing at the same Redis.
type RedisLimiter struct {
	rdb   *redis.Client
	limit int64
	now   func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, rps float64, burst int) *RedisLimiter {
	limit := int64(rps)
	if int64(burst) > limit {
		limit = int64(burst)
	}
	return &RedisLimiter{rdb: rdb, limit: limit, now: time.Now}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := "ratelimit:" + key + ":" + strconv.FormatInt(rl.now().Unix(), 10)

	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, 2*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= rl.limit, nil
}

// RateLimitMiddleware limits each client per route. Limiter errors let the
// request through.
func RateLimitMiddleware(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		allowed, err := l.Allow(c.Request.Context(), c.ClientIP()+"|"+route)
		if err != nil {
			logger.Warn("rate limiter unavailable", "route", route, "error", err)
			c.Next()
			return
		}
		if !allowed {
			metrics.RecordRateLimited(route)
			api.Error(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
