package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis connects to addr and returns the client plus a lock client built on it.
// Redis is optional for this service: an empty addr returns nil handles and no error.
func ConnectRedis(ctx context.Context, addr string, maxAttempts int) (*redis.Client, *redislock.Client, error) {
	if addr == "" {
		log.Printf("REDIS_ADDRESS not set; load locking disabled")
		return nil, nil, nil
	}

	var attempt int
	for {
		attempt++
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: "",
			DB:       0, // use default DB
			PoolSize: 10,
		})
		err := rdb.Ping(ctx).Err()
		if err == nil {
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, addr)
			return rdb, redislock.New(rdb), nil
		}
		_ = rdb.Close()
		if maxAttempts > 0 && attempt >= maxAttempts {
			return nil, nil, fmt.Errorf("connect redis %s after %d attempts: %w", addr, attempt, err)
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, addr, err, sleep)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}
