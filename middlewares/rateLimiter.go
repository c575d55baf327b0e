package middlewares

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window request counter per client IP, kept in redis.
// Until a client is attached (redis connects after the port opens) every request passes.
type RateLimiter struct {
	client atomic.Pointer[redis.Client]
	limit  int64
	window time.Duration
}

func NewRateLimiter(limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
	}
}

// Attach sets the redis client the counters live in. A nil client keeps limiting off.
func (rl *RateLimiter) Attach(client *redis.Client) {
	rl.client.Store(client)
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := rl.client.Load()
		if client == nil {
			c.Next()
			return
		}
		key := "ratelimit:" + c.ClientIP()
		ctx := c.Request.Context()

		// The window starts with the key; SETNX and INCR run in one MULTI so a key
		// never exists without its TTL.
		var incr *redis.IntCmd
		_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetNX(ctx, key, 0, rl.window)
			incr = pipe.Incr(ctx, key)
			return nil
		})
		if err != nil {
			// redis down: let the request through
			c.Next()
			return
		}

		if incr.Val() > rl.limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
			})
			return
		}
		c.Next()
	}
}
