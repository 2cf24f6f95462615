package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard shares markers between processes through SET NX with a TTL.
type RedisGuard struct {
	rdb    redis.UniversalClient
	window time.Duration
	prefix string
}

func NewRedisGuard(rdb redis.UniversalClient, window time.Duration) *RedisGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisGuard{rdb: rdb, window: window, prefix: "hr:dedupe:"}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, g.prefix+key, 1, g.window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.rdb.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// NewRedisClient connects and pings. Callers fall back to the memory guard on error.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
